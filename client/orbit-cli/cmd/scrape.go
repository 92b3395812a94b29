package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var urlFlags = map[string]*string{}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape social media profiles",
}

var scrapeUserCmd = &cobra.Command{
	Use:   "user [user-id]",
	Short: "Scrape every configured platform for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/social-scraper/scrape/"+args[0], nil)
	},
}

var scrapeContactCmd = &cobra.Command{
	Use:   "contact [user-id] [contact-id]",
	Short: "Scrape one of a user's contacts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/social-scraper/scrape-contact/"+args[0]+"/"+args[1], nil)
	},
}

var scrapeAllCmd = &cobra.Command{
	Use:   "all-contacts [user-id]",
	Short: "Scrape all of a user's contacts, one after another",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/social-scraper/scrape-all-contacts/"+args[0], nil)
	},
}

var setURLsCmd = &cobra.Command{
	Use:   "set-urls [user-id]",
	Short: "Update a user's social media URLs; omitted flags are left unchanged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{}
		for name, v := range urlFlags {
			if cmd.Flags().Changed(name) {
				body[name+"_url"] = *v
			}
		}
		return call(cmd, http.MethodPost, "/social-scraper/update-urls/"+args[0], body)
	},
}

var profileKBCmd = &cobra.Command{
	Use:   "knowledge-base [user-id]",
	Short: "Show the knowledge base rebuilt from a user's last scrape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/social-scraper/knowledge-base/"+args[0], nil)
	},
}

var debugLinkedInCmd = &cobra.Command{
	Use:   "debug-linkedin [user-id]",
	Short: "Scrape only the LinkedIn profile without saving anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/social-scraper/debug-linkedin/"+args[0], nil)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.AddCommand(scrapeUserCmd, scrapeContactCmd, scrapeAllCmd, setURLsCmd, profileKBCmd, debugLinkedInCmd)

	for _, name := range []string{"linkedin", "instagram", "tiktok", "facebook", "twitter", "youtube"} {
		urlFlags[name] = setURLsCmd.Flags().String(name, "", name+" profile URL")
	}
}
