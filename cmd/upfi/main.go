// Command upfi talks to the upfi API from a terminal: it can log in,
// register and ask the API who the holder of a token is.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"upfi-web/core"
)

type options struct {
	apiURL      string
	timeout     time.Duration
	jsonOutput  bool
	username    string
	token       string
	tokenCookie string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var client *core.HTTPAPIClient

	rootCmd := &cobra.Command{
		Use:           "upfi <command>",
		Short:         "CLI client for the upfi API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadCLIConfig(defaultCLIConfigPath())
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			url := resolveAPIURL(opts.apiURL, os.Getenv("UPFI_API_URL"), fileCfg.APIURL)
			client = core.NewHTTPAPIClient(url, opts.timeout)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "upfi API base URL (default $UPFI_API_URL, config file, or "+defaultAPIURL+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")

	getClient := func() *core.HTTPAPIClient { return client }
	rootCmd.AddCommand(
		newSubmitCmd(core.ModeLogin, opts, getClient),
		newSubmitCmd(core.ModeRegister, opts, getClient),
		newMeCmd(opts, getClient),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
