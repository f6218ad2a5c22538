package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portrait/internal/api"
	"portrait/internal/auth"
	"portrait/internal/config"
	"portrait/internal/store"
)

func newAdminCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminSetPasswordCmd(cfg))
	cmd.AddCommand(newAdminWhoamiCmd(cfg, jsonOutput))
	return cmd
}

func newAdminSetPasswordCmd(cfg *config.Config) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Set the operator password in the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			if cfg == nil || cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			password, err := readPasswordLine(cmd.InOrStdin())
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := auth.StoreOperatorPassword(cmdContext(cmd), st, password, time.Now().UTC()); err != nil {
				return err
			}
			return writePlain("operator password updated\n")
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newAdminWhoamiCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show whether the server accepts the current credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				ctx := cmdContext(cmd)

				var (
					resp api.AuthMeResponse
					err  error
				)
				if passwordStdin {
					password, readErr := readPasswordLine(cmd.InOrStdin())
					if readErr != nil {
						return readErr
					}
					jar, jarErr := cookiejar.New(nil)
					if jarErr != nil {
						return jarErr
					}
					client = client.WithToken("").WithHTTPClient(&http.Client{Jar: jar, Timeout: 10 * time.Second})
					if _, err = client.Login(ctx, password); err != nil {
						return err
					}
				}
				resp, err = client.AuthMe(ctx)
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}
				authType := resp.AuthType
				if authType == "" {
					authType = "none"
				}
				return writePlain("authenticated: %t\nauth_required: %t\nauth_type: %s\n", resp.Authenticated, resp.AuthRequired, authType)
			})
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "log in with a password read from stdin")
	return cmd
}

func readPasswordLine(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
