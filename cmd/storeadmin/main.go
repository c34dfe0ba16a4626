// storeadmin is the operational companion to the user store: it provisions
// the uniqueness indexes, looks up users and seeds accounts in development
// environments.
//
// Usage:
//
//	storeadmin ensure-indexes
//	storeadmin find (-id ID | -name NORMALIZED_NAME | -email NORMALIZED_EMAIL)
//	storeadmin seed -username NAME [-email ADDR] -password SECRET
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillarb/mongo-userstore/identity"
	"github.com/quillarb/mongo-userstore/mongostore"
	"github.com/quillarb/mongo-userstore/pkg/config"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: storeadmin <ensure-indexes|find|seed> [flags]")
		os.Exit(2)
	}

	cfg, log, err := config.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1], os.Args[2:], cfg, log); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, cfg *config.Config, log *logger.Logger) error {
	client, err := mongostore.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	switch command {
	case "ensure-indexes":
		mongoCfg := cfg.Mongo
		mongoCfg.EnableIndexes = true
		store, err := mongostore.NewUserStore(ctx, client, mongoCfg, log)
		if err != nil {
			return err
		}
		log.Info("indexes ensured", zap.String("collection", store.Collection().Name()))
		return nil

	case "find":
		store, err := mongostore.NewUserStore(ctx, client, cfg.Mongo, log)
		if err != nil {
			return err
		}
		return findUser(ctx, args, store)

	case "seed":
		store, err := mongostore.NewUserStore(ctx, client, cfg.Mongo, log)
		if err != nil {
			return err
		}
		return seedUser(ctx, args, store, log)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func findUser(ctx context.Context, args []string, store *mongostore.UserStore) error {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	id := fs.String("id", "", "user id")
	name := fs.String("name", "", "normalized user name")
	email := fs.String("email", "", "normalized email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		user *identity.User
		err  error
	)
	switch {
	case *id != "":
		user, err = store.FindByID(ctx, *id)
	case *name != "":
		user, err = store.FindByName(ctx, *name)
	case *email != "":
		user, err = store.FindByEmail(ctx, *email)
	default:
		return fmt.Errorf("one of -id, -name or -email is required")
	}
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no matching user")
	}

	out, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func seedUser(ctx context.Context, args []string, store *mongostore.UserStore, log *logger.Logger) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	username := fs.String("username", "", "user name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "plaintext password to hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("-username and -password are required")
	}

	var (
		user *identity.User
		err  error
	)
	if *email != "" {
		user, err = identity.NewUserWithEmail(*username, *email)
	} else {
		user, err = identity.NewUser(*username)
	}
	if err != nil {
		return err
	}

	if err := user.SetNormalizedUserName(strings.ToUpper(*username)); err != nil {
		return err
	}
	if *email != "" {
		if err := user.SetNormalizedEmail(strings.ToUpper(*email)); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.SetPasswordHash(string(hash))
	user.SetSecurityStamp(uuid.New().String())

	result, err := store.Create(ctx, user)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		return fmt.Errorf("create failed: %s", result.Reason)
	}

	log.Info("user seeded", zap.String("user_id", user.ID), zap.String("user_name", user.UserName))
	return nil
}
