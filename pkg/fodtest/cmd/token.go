package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/auth"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/fodapi"
	"github.com/fodqa/fod-regression/pkg/fodtest/output"
)

type tokenInfo struct {
	Principal string    `json:"principal" yaml:"principal"`
	Token     string    `json:"token" yaml:"token"`
	Expiry    time.Time `json:"expiry,omitempty" yaml:"expiry,omitempty"`
	Scopes    []string  `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
}

func NewTokenCommand() *cobra.Command {
	var (
		scopes []string
		apiKey bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch a REST API token with the configured credentials",
		Long: "Fetch a REST API token. By default the tenant user's password grant is used;\n" +
			"--api-key switches to the client credentials of credentials.apiKey.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			requested := make([]dto.Scope, 0, len(scopes))
			for _, s := range scopes {
				requested = append(requested, dto.Scope(s))
			}

			cfg := *rt.cfg
			var (
				client    *fodapi.Client
				principal string
			)
			if apiKey {
				principal = "apikey:" + cfg.Credentials.APIKey
				client, err = fodapi.InitAPIKey(cmd.Context(), cfg, requested...)
			} else {
				principal = cfg.Credentials.TenantCode + `\` + cfg.Credentials.TenantUser
				client, err = fodapi.Init(cmd.Context(), cfg,
					fodapi.UserPayload{UserName: cfg.Credentials.TenantUser, Password: cfg.Credentials.TenantPassword},
					cfg.Credentials.TenantCode, requested...)
			}
			if err != nil {
				return err
			}
			defer client.Close()

			tok, err := client.Token()
			if err != nil {
				return err
			}
			if raw {
				_, _ = fmt.Fprintln(rt.Writer(), tok.AccessToken)
				return nil
			}

			info := tokenInfo{Principal: principal, Token: tok.AccessToken, Expiry: tok.Expiry, Scopes: scopes}
			// product tokens are usually opaque; JWT claims are shown when present
			if claims, err := auth.ParseClaims(tok.AccessToken); err == nil {
				info.Subject = claims.Subject
				if len(claims.Scopes) > 0 {
					info.Scopes = claims.Scopes
				}
			}
			return rt.writeObject(info, func(w io.Writer) {
				output.WriteKeyValues(w, [][2]string{
					{"Principal", info.Principal},
					{"Subject", info.Subject},
					{"Scopes", strings.Join(info.Scopes, " ")},
					{"Expires", info.Expiry.Format(time.RFC3339)},
					{"Token", info.Token},
				})
			})
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "Scopes to request (default: api-tenant)")
	cmd.Flags().BoolVar(&apiKey, "api-key", false, "Use the API key client credentials")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the access token")
	return cmd
}
