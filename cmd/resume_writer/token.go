package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-writer/internal/config"
	"github.com/jonathan/resume-writer/internal/server"
)

var (
	tokenUserID string
	tokenCookie bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed development session token",
	Long:  "Sign a session token for --user-id with JWT_SECRET, for use as the auth cookie when calling the API locally.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID to embed in the userId claim (required)")
	tokenCmd.Flags().BoolVar(&tokenCookie, "cookie", false, "Print as a name=value cookie pair")
	_ = tokenCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	svc := server.NewJWTService(jwtConfig)
	token, err := svc.GenerateToken(tokenUserID)
	if err != nil {
		return err
	}

	if tokenCookie {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", svc.CookieName(), token)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
