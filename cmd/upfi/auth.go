package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"upfi-web/core"
)

// result is what every command prints.
type result struct {
	Outcome core.Outcome    `json:"outcome"`
	Status  int             `json:"status,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Token   string          `json:"token,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func newSubmitCmd(mode core.Mode, opts *options, client func() *core.HTTPAPIClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(mode),
		Short: fmt.Sprintf("%s against the upfi API", mode.Title()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

			creds := core.Credentials{Username: opts.username}
			var err error
			if creds.Username == "" {
				if creds.Username, err = p.line("Username"); err != nil {
					return err
				}
			}
			if creds.Password, err = p.secret("Login password"); err != nil {
				return err
			}
			if mode == core.ModeRegister {
				if creds.Master, err = p.secret("Master password"); err != nil {
					return err
				}
			}
			if err := creds.Validate(); err != nil {
				return err
			}

			resp, err := client().Submit(cmd.Context(), mode, creds)
			res := newResult(resp, err)
			if resp != nil {
				for _, ck := range resp.Cookies() {
					if ck.Name == opts.tokenCookie {
						res.Token = ck.Value
					}
				}
			}
			return report(cmd.OutOrStdout(), opts.jsonOutput, string(mode), res, err)
		},
	}
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVar(&opts.tokenCookie, "token-cookie", "token", "name of the API's auth cookie")
	return cmd
}

func newMeCmd(opts *options, client func() *core.HTTPAPIClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Ask the API who the token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := opts.token
			if token == "" {
				token = os.Getenv("UPFI_TOKEN")
			}
			var cookies []*http.Cookie
			if token != "" {
				cookies = append(cookies, &http.Cookie{Name: opts.tokenCookie, Value: token})
			}

			acct, resp, err := client().Me(cmd.Context(), cookies)
			res := newResult(resp, err)
			if err == nil && !opts.jsonOutput && acct != nil && acct.Username != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", acct.Username)
			}
			return report(cmd.OutOrStdout(), opts.jsonOutput, "me", res, err)
		},
	}
	cmd.Flags().StringVar(&opts.token, "token", "", "API token cookie value (default $UPFI_TOKEN)")
	cmd.Flags().StringVar(&opts.tokenCookie, "token-cookie", "token", "name of the API's auth cookie")
	return cmd
}

func newResult(resp *core.APIResponse, err error) result {
	res := result{Outcome: core.ClassifyAPIError(err)}
	if resp != nil {
		res.Status = resp.StatusCode
		res.Body = resp.Body
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// report prints res and turns anything but a 2xx into an error so the exit status is non-zero.
func report(w io.Writer, asJSON bool, action string, res result, err error) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
	} else {
		switch res.Outcome {
		case core.OutcomeOK:
			fmt.Fprintf(w, "%s ok (status %d)\n", action, res.Status)
			if len(res.Body) > 0 {
				fmt.Fprintf(w, "%s\n", res.Body)
			}
			if res.Token != "" {
				fmt.Fprintf(w, "token: %s\n", res.Token)
			}
		case core.OutcomeRejected:
			fmt.Fprintf(w, "%s rejected (status %d)\n", action, res.Status)
		case core.OutcomeUnreachable:
			fmt.Fprintf(w, "%s failed: the upfi API could not be reached\n", action)
		default:
			fmt.Fprintf(w, "%s failed\n", action)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
