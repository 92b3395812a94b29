package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var (
	kbPlatform   string
	kbSourceType string
	kbSummary    string
	kbKeywords   []string
	kbTopics     []string
	queryUserID  uint
	queryLimit   int
)

var knowledgeCmd = &cobra.Command{
	Use:     "knowledge",
	Aliases: []string{"kb"},
	Short:   "Manage knowledge base entries",
}

var kbCreateCmd = &cobra.Command{
	Use:   "create [user-id] [title] [content]",
	Short: "Create a knowledge base entry and index it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUint(args[0])
		if err != nil {
			return err
		}
		body := map[string]interface{}{
			"userId":         userID,
			"title":          args[1],
			"content":        args[2],
			"sourcePlatform": kbPlatform,
			"sourceType":     kbSourceType,
		}
		if kbSummary != "" {
			body["summary"] = kbSummary
		}
		if len(kbKeywords) > 0 {
			body["keywords"] = kbKeywords
		}
		if len(kbTopics) > 0 {
			body["topics"] = kbTopics
		}
		return call(cmd, http.MethodPost, "/knowledge-base", body)
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list [user-id]",
	Short: "List a user's knowledge base entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/knowledge-base/user/"+args[0], nil)
	},
}

var kbGetCmd = &cobra.Command{
	Use:   "get [entry-id]",
	Short: "Show a single knowledge base entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/knowledge-base/"+args[0], nil)
	},
}

var kbQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Semantic search over the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/knowledge-base/query", queryBody(cmd, args[0]))
	},
}

// queryBody builds {query, userId?, limit?}; userId is only sent when --user was given.
func queryBody(cmd *cobra.Command, text string) map[string]interface{} {
	body := map[string]interface{}{"query": text}
	if cmd.Flags().Changed("user") {
		body["userId"] = queryUserID
	}
	if queryLimit > 0 {
		body["limit"] = queryLimit
	}
	return body
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(kbCreateCmd, kbListCmd, kbGetCmd, kbQueryCmd)

	kbCreateCmd.Flags().StringVar(&kbPlatform, "platform", "manual", "source platform")
	kbCreateCmd.Flags().StringVar(&kbSourceType, "type", "note", "source type")
	kbCreateCmd.Flags().StringVar(&kbSummary, "summary", "", "optional summary")
	kbCreateCmd.Flags().StringSliceVar(&kbKeywords, "keywords", nil, "comma-separated keywords")
	kbCreateCmd.Flags().StringSliceVar(&kbTopics, "topics", nil, "comma-separated topics")

	kbQueryCmd.Flags().UintVar(&queryUserID, "user", 0, "only search this user's documents")
	kbQueryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum number of results (server default 5)")
}
