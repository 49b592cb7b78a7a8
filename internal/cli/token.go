package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/service"
	"golang.org/x/term"
)

// TokenResult is the output of token issue.
type TokenResult struct {
	Identity  string    `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage caller tokens",
	}

	var (
		addr string
		ttl  time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token for a wallet identity",
		Long: `Sign a bearer token for a wallet identity.

The signing secret is read from JWT_SECRET. When it is unset and stdin is a
terminal, the secret is prompted for without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			secret, err := signingSecret(cfg.JWTSecret, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpiry
			}

			auth, err := service.NewAuthService(secret, ttl)
			if err != nil {
				return err
			}
			token, exp, err := auth.IssueToken(addr)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			claims, err := auth.ValidateToken(token)
			if err != nil {
				return err
			}

			res := TokenResult{Identity: claims.Identity(), Token: token, ExpiresAt: exp.UTC()}
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, func(w io.Writer) error {
				return textLine(w, "%s", res.Token)
			})
		},
	}
	issue.Flags().StringVar(&addr, "identity", "", "wallet address the token is issued to")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRY_HOURS)")
	_ = issue.MarkFlagRequired("identity")

	cmd.AddCommand(issue)
	return cmd
}

func signingSecret(configured string, prompt io.Writer) (string, error) {
	if configured != "" {
		return configured, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("JWT_SECRET is not set and stdin is not a terminal")
	}

	fmt.Fprint(prompt, "JWT secret: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", service.ErrMissingSecret
	}
	return secret, nil
}
