package models

// LogEntry 定义了结构化日志的统一格式，与 pkg/logger 输出的字段保持一致。
type LogEntry struct {
	// ServiceName 产生日志的服务名称，例如 "social_service"。
	ServiceName string `json:"service_name"`

	// TraceID 用于串联同一请求在各组件中的日志。
	TraceID string `json:"trace_id,omitempty"`

	// UserID 与此日志事件相关的用户。
	UserID string `json:"user_id,omitempty"`

	RequestInfo *RequestInfo           `json:"request_info,omitempty"`
	Error       *ErrorInfo             `json:"error,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了关于 HTTP 请求的上下文信息。
// 不记录请求头，避免 Authorization 等凭据进入日志。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	Type       string `json:"type,omitempty"` // 例如 "scrape_error", "database_error", "validation_error"
	StatusCode int    `json:"status_code,omitempty"`
}
