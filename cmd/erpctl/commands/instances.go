package commands

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"erpcore/internal/blob"
	"erpcore/internal/core"
	"erpcore/internal/instance"
)

func newInitCmd(a *app) *cobra.Command {
	var ownCapital string
	cmd := &cobra.Command{
		Use:   "init NAME",
		Short: "Create an empty instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			repo, err := a.defaultRepository(cmd.Context())
			if err != nil {
				return err
			}
			exists, err := repo.Exists(cmd.Context(), name)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("instance %q already exists", instance.BaseName(name))
			}
			store := core.NewStore(name, a.storeOptions()...)
			if ownCapital != "" {
				amount, err := decimal.NewFromString(ownCapital)
				if err != nil {
					return fmt.Errorf("--own-capital: %w", err)
				}
				if err := store.SetOwnCapital(amount); err != nil {
					return err
				}
			}
			if err := repo.Save(cmd.Context(), store); err != nil {
				return err
			}
			a.out.Success("created %s (%s)", instance.MainKey(name), a.cfg.Driver)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownCapital, "own-capital", "", "initial own capital, e.g. 15000.50")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.defaultRepository(cmd.Context())
			if err != nil {
				return err
			}
			list, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if list == nil {
					list = []instance.Summary{}
				}
				return enc.Encode(list)
			}
			if len(list) == 0 {
				a.out.Warning("no instances stored in %s", a.cfg.Driver)
				return nil
			}
			for _, s := range list {
				secrets := "no secrets"
				if s.HasSecrets {
					secrets = "secrets"
				}
				a.out.Info("%s  %d bytes  %s  %s", s.Name, s.Size, s.LastModified.Format("2006-01-02 15:04"), secrets)
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an instance and its secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.defaultRepository(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := repo.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("instance %q: %w", args[0], instance.ErrNotFound)
			}
			a.out.Success("deleted %s", instance.BaseName(args[0]))
			return nil
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	var (
		to          string
		dataDir     string
		sqlitePath  string
		postgresDSN string
		bucket      string
	)
	cmd := &cobra.Command{
		Use:   "copy NAME",
		Short: "Copy an instance to another storage backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := a.cfg
			dst.Driver = blob.Driver(to)
			if dataDir != "" {
				dst.DataDir = dataDir
			}
			if sqlitePath != "" {
				dst.SQLitePath = sqlitePath
			}
			if postgresDSN != "" {
				dst.PostgresDSN = postgresDSN
			}
			if bucket != "" {
				dst.S3.Bucket = bucket
			}
			if err := dst.Validate(); err != nil {
				return err
			}
			src, err := a.defaultRepository(cmd.Context())
			if err != nil {
				return err
			}
			target, err := a.repository(cmd.Context(), dst.BlobOptions())
			if err != nil {
				return err
			}
			if err := src.Copy(cmd.Context(), args[0], target); err != nil {
				return err
			}
			a.out.Success("copied %s from %s to %s", instance.BaseName(args[0]), a.cfg.Driver, dst.Driver)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&to, "to", "", "target storage driver (required)")
	flags.StringVar(&dataDir, "to-data-dir", "", "target directory for the fs driver")
	flags.StringVar(&sqlitePath, "to-sqlite-path", "", "target database file for the sqlite driver")
	flags.StringVar(&postgresDSN, "to-postgres-dsn", "", "target connection string for the postgres driver")
	flags.StringVar(&bucket, "to-s3-bucket", "", "target bucket for the s3 driver")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
