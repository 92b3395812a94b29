package milvus

import (
	"context"
	"fmt"
	"sync"

	"Orbit/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sirupsen/logrus"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		logrus.WithField("address", cfg.Address).Info("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c == nil || c.Client == nil {
		return
	}
	ctx := context.Background()
	if err := c.Flush(ctx); err != nil {
		logrus.WithError(err).Warn("关闭前刷新 Milvus 集合失败")
	}
	if err := c.Client.Close(); err != nil {
		logrus.WithError(err).Warn("关闭 Milvus 连接失败")
		return
	}
	logrus.Info("已安全关闭 Milvus 连接。")
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// Flush 将集合中尚在内存的数据落盘。
func (c *MilvusClient) Flush(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("刷新集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// EnsureCollection 确保配置中的集合存在、已建索引并已加载。
//
// 参数:
//
//	ctx: 上下文。
//
// 返回值:
//
//	error: 检查、创建、建索引或加载失败时返回错误。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}
	if !exists {
		schema, err := c.buildSchemaFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}
		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", c.Config.Schema.Index.FieldName, err)
		}
		logrus.WithField("collection", collName).Info("✅ 成功创建 Milvus 集合")
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

func (c *MilvusClient) buildSchemaFromConfig() (*entity.Schema, error) {
	schema := entity.NewSchema().
		WithName(c.Config.Schema.CollectionName).
		WithDescription(c.Config.Schema.Description)

	for _, fieldCfg := range c.Config.Schema.Fields {
		field := entity.NewField().WithName(fieldCfg.Name)
		if fieldCfg.IsPrimaryKey {
			field = field.WithIsPrimaryKey(true)
		}
		if fieldCfg.IsAutoID {
			field = field.WithIsAutoID(true)
		}

		switch fieldCfg.DataType {
		case "Int64":
			field = field.WithDataType(entity.FieldTypeInt64)
		case "VarChar":
			field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
		case "JSON":
			field = field.WithDataType(entity.FieldTypeJSON)
		case "FloatVector":
			field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
		case "Float":
			field = field.WithDataType(entity.FieldTypeFloat)
		case "Double":
			field = field.WithDataType(entity.FieldTypeDouble)
		case "Bool":
			field = field.WithDataType(entity.FieldTypeBool)
		default:
			return nil, fmt.Errorf("不支持的数据类型: %s", fieldCfg.DataType)
		}
		schema = schema.WithField(field)
	}
	return schema, nil
}

// buildIndexFromConfig 从配置构建索引实体。
func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Schema.Index
	metricType := entity.MetricType(indexCfg.MetricType)

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "HNSW":
		return entity.NewIndexHNSW(metricType, intParam(indexCfg.Params, "M", 8), intParam(indexCfg.Params, "efConstruction", 96))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexCfg.IndexType)
	}
}

// SearchParam 根据索引类型返回对应的搜索参数。
func (c *MilvusClient) SearchParam() (entity.SearchParam, error) {
	indexCfg := c.Config.Schema.Index
	switch indexCfg.IndexType {
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(intParam(indexCfg.Params, "ef", 64))
	case "IVF_FLAT", "IVF_SQ8":
		return entity.NewIndexIvfFlatSearchParam(intParam(indexCfg.Params, "nprobe", 10))
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEXSearchParam(1)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexCfg.IndexType)
	}
}

// MetricType 返回配置中的度量类型。
func (c *MilvusClient) MetricType() entity.MetricType {
	return entity.MetricType(c.Config.Schema.Index.MetricType)
}

// Dim 返回向量字段的维度，未找到时返回 0。
func (c *MilvusClient) Dim() int {
	for _, f := range c.Config.Schema.Fields {
		if f.Name == c.Config.Schema.VectorField {
			return f.Dim
		}
	}
	return 0
}

// MaxLength 返回 VarChar 字段 name 的最大字节数，字段不存在或未设置时返回 0。
func (c *MilvusClient) MaxLength(name string) int {
	for _, f := range c.Config.Schema.Fields {
		if f.Name == name && f.DataType == "VarChar" {
			return f.MaxLength
		}
	}
	return 0
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
