package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Interact with the vector store",
}

var vectorIndexCmd = &cobra.Command{
	Use:       "index [users|knowledge]",
	Short:     "Bulk-index users or knowledge base entries",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"users", "knowledge"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/vector-db/index-"+args[0], nil)
	},
}

var vectorQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the vector store directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/vector-db/query", queryBody(cmd, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(vectorCmd)
	vectorCmd.AddCommand(vectorIndexCmd, vectorQueryCmd)

	vectorQueryCmd.Flags().UintVar(&queryUserID, "user", 0, "only search this user's documents")
	vectorQueryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum number of results (server default 5)")
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(v), nil
}
