package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(serverURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
}

// call sends a request and pretty-prints the JSON response to cmd's output.
// Non-2xx responses are returned as errors carrying the server's message.
func call(cmd *cobra.Command, method, path string, body interface{}) error {
	req := newClient().R().SetContext(cmd.Context())
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status(), e.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status(), resp.String())
	}
	return printJSON(cmd.OutOrStdout(), resp.Body())
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = w.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
