package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"artfolio/internal/auth"
	"artfolio/internal/config"
	"artfolio/internal/database"
	"artfolio/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, err := database.InitDatabase(cfg.Database, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database migrated")
			return nil
		},
	}
}

func newResetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace an artist's password with a random one and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.InitDatabase(cfg.Database, false)
			if err != nil {
				return err
			}
			password, err := resetPassword(cmd.Context(), repository.NewGormRepository(db), email)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "已重置密码：\n")
			fmt.Fprintf(out, "邮箱: %s\n", strings.ToLower(strings.TrimSpace(email)))
			fmt.Fprintf(out, "新密码: %s\n", password)
			fmt.Fprintf(out, "提示：该密码仅显示一次，请通知艺术家登录后修改。\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "artist email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// resetPassword 为指定邮箱生成随机密码并写入哈希，返回明文。
func resetPassword(ctx context.Context, repo repository.Repository, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("missing required flag: --email")
	}
	artist, err := repo.GetArtistByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find artist %q: %w", email, err)
	}

	password, err := generateRandomPassword(18)
	if err != nil {
		return "", err
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	artist.PasswordHash = hashed
	if err := repo.UpdateArtist(ctx, artist); err != nil {
		return "", fmt.Errorf("update artist: %w", err)
	}
	return password, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 18
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
