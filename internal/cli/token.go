package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/openworld/internal/services/auth"
)

const (
	defaultKidTTL    = 5 * time.Minute
	defaultParentTTL = 10 * time.Minute
)

var errNoSecret = errors.New("token secret required (--secret or TOKEN_SECRET)")

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint admission tokens for local testing",
		Long: `Mint signed admission tokens the same way the dashboard does.

The secret must match the server's TOKEN_SECRET.`,
	}

	cmd.PersistentFlags().StringVar(&cfg.Secret, "secret", cfg.Secret, "Token signing secret (env: TOKEN_SECRET)")

	cmd.AddCommand(newKidTokenCmd())
	cmd.AddCommand(newParentTokenCmd())

	return cmd
}

func newKidTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "kid <child-id>",
		Short: "Mint a kid token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := mintToken(auth.Claims{Kid: args[0]}, ttl, time.Now())
			if err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", defaultKidTTL, "Token lifetime")
	return cmd
}

func newParentTokenCmd() *cobra.Command {
	var (
		ttl    time.Duration
		family string
	)

	cmd := &cobra.Command{
		Use:   "parent <parent-user-id>",
		Short: "Mint a parent token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := mintToken(auth.Claims{Parent: args[0], Family: family}, ttl, time.Now())
			if err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", defaultParentTTL, "Token lifetime")
	cmd.Flags().StringVar(&family, "family", "", "Family id to embed in the token")
	return cmd
}

func mintToken(claims auth.Claims, ttl time.Duration, now time.Time) (TokenResult, error) {
	if cfg.Secret == "" {
		return TokenResult{}, errNoSecret
	}
	if ttl <= 0 {
		return TokenResult{}, errors.New("ttl must be positive")
	}

	expiresAt := now.Add(ttl).Truncate(time.Second)
	claims.Exp = expiresAt.Unix()

	token, err := auth.SignToken(cfg.Secret, claims)
	if err != nil {
		return TokenResult{}, err
	}
	return TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}
