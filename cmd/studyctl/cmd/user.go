package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/auth"
	"github.com/StudyCore/studycore/internal/db"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/profiles"
	"github.com/StudyCore/studycore/internal/session"
)

var (
	addEmail    string
	addPassword string
	addUsername string
	addRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts and roles",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account and its profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hierarchy, err := activeHierarchy()
		if err != nil {
			return err
		}
		role, err := resolveRole(hierarchy, addRole)
		if err != nil {
			return err
		}

		d, err := openDB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		svc := auth.NewService(d, nil, 0)
		user, err := svc.CreateUser(ctx, addEmail, addPassword, addUsername)
		if errors.Is(err, auth.ErrEmailTaken) {
			return fmt.Errorf("an account for %s already exists", addEmail)
		}
		if err != nil {
			return err
		}

		store := profiles.NewStore(d)
		profile, err := session.EnsureProfile(ctx, store, models.Principal{
			ID:       user.UserID,
			Email:    user.Email,
			Username: user.Username,
		})
		if err != nil {
			return err
		}
		if profile.Role != role {
			if profile, err = store.UpdateProfileRole(ctx, user.UserID, role); err != nil {
				return err
			}
		}

		pterm.Success.Printf("Created %s (%s) as %s\n", user.Email, user.UserID, profile.Role)
		return nil
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role <user-id> <role>",
	Short: "Set the role on an existing profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hierarchy, err := activeHierarchy()
		if err != nil {
			return err
		}
		role, err := resolveRole(hierarchy, args[1])
		if err != nil {
			return err
		}

		d, err := openDB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		profile, err := profiles.NewStore(d).UpdateProfileRole(ctx, args[0], role)
		if errors.Is(err, session.ErrProfileNotFound) {
			return fmt.Errorf("no profile with id %s", args[0])
		}
		if err != nil {
			return err
		}

		announceRoleChange(ctx, profile.ID)
		pterm.Success.Printf("%s (%s) is now %s\n", profile.Username, profile.ID, profile.Role)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&addEmail, "email", "", "account email (required)")
	userAddCmd.Flags().StringVar(&addPassword, "password", "", "initial password (required)")
	userAddCmd.Flags().StringVar(&addUsername, "username", "", "display name (default: email local part)")
	userAddCmd.Flags().StringVar(&addRole, "role", models.RoleStudent, "initial role")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRoleCmd)
}

// resolveRole returns the hierarchy's spelling of role, or an error naming the known roles.
func resolveRole(h access.Hierarchy, role string) (string, error) {
	canonical, ok := h.Canonical(role)
	if !ok {
		return "", fmt.Errorf("unknown role %q (known: %v)", role, h.Roles())
	}
	return canonical, nil
}

func activeHierarchy() (access.Hierarchy, error) {
	p, err := access.LoadPolicy(policyFile)
	if err != nil {
		return access.Hierarchy{}, err
	}
	return p.Hierarchy(), nil
}

func openDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	d, err := db.Open(dsn, logger.Error)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return d, nil
}

// announceRoleChange lets running servers refresh cached sessions of userID
// when they share a Redis event channel.
func announceRoleChange(ctx context.Context, userID string) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		pterm.Info.Println("REDIS_URL not set; signed-in sessions pick up the change when their cache entry expires")
		return
	}

	rdb, err := db.NewRedis(url)
	if err != nil {
		pterm.Warning.Printf("could not announce role change: %v\n", err)
		return
	}
	defer rdb.Close()

	hub, err := auth.NewRedisHub(ctx, rdb, auth.DefaultEventChannel)
	if err != nil {
		pterm.Warning.Printf("could not announce role change: %v\n", err)
		return
	}
	defer hub.Close()

	if err := hub.Publish(ctx, auth.Event{Kind: auth.ProfileChanged, UserID: userID}); err != nil {
		pterm.Warning.Printf("could not announce role change: %v\n", err)
	}
}
