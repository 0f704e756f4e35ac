package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"tabguard/adapters/crypto"
	"tabguard/adapters/postgres"
	"tabguard/adapters/stats"
	"tabguard/adapters/tabular"
	"tabguard/domain/missing"
	"tabguard/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabguard",
		Short: "Missingness inspection and field-level encryption for tabular data",
	}

	rootCmd.AddCommand(
		newKeygenCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newDecryptLookupCmd(),
		newEncryptFileCmd(),
		newDecryptFileCmd(),
		newGlimpseCmd(),
		newPatternCmd(),
		newCompareCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newKeygenCmd() *cobra.Command {
	var publicPath, privatePath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair; the private key is sealed by the passphrase",
		Long: "Generate an RSA key pair. The private key is sealed under the passphrase\n" +
			"read from TABGUARD_PASSPHRASE. If the private key file or passphrase is\n" +
			"lost, data encrypted with the public key is permanently unrecoverable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase()
			if err != nil {
				return err
			}
			pair, err := crypto.GenerateKeyPair(passphrase, passphrasePolicy())
			if err != nil {
				return err
			}
			if err := crypto.WriteKeyPair(pair, publicPath, privatePath); err != nil {
				return err
			}
			fingerprint, err := pair.Public.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("public key:  %s\nprivate key: %s\nfingerprint: %s\n",
				publicPath, privatePath, fingerprint)
			return nil
		},
	}

	cmd.Flags().StringVar(&publicPath, "public", "tabguard_public.pem", "public key output path")
	cmd.Flags().StringVar(&privatePath, "private", "tabguard_private.pem", "private key output path")
	return cmd
}

func newEncryptCmd() *cobra.Command {
	var keyPath, keyURL, outPath, lookupPath, lookupDB, dataset string
	var columns []string

	cmd := &cobra.Command{
		Use:   "encrypt [data-file]",
		Short: "Encrypt columns of a CSV/XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := loadOrFetchPublicKey(cmd, keyPath, keyURL)
			if err != nil {
				return err
			}
			t, err := tabular.NewDataReader(args[0]).ReadTable()
			if err != nil {
				return err
			}

			externalize := lookupPath != "" || lookupDB != ""
			side, err := crypto.EncryptColumns(t, columns, pub, externalize)
			if err != nil {
				return err
			}
			if side != nil {
				if lookupPath != "" {
					if err := tabular.WriteLookupCSV(side, lookupPath); err != nil {
						return err
					}
					fmt.Printf("lookup table: %s\n", lookupPath)
				}
				if lookupDB != "" {
					if err := saveLookupDB(cmd, lookupDB, dataset, side); err != nil {
						return err
					}
					fmt.Printf("lookup table saved to database as %q\n", dataset)
				}
			}
			if err := tabular.WriteTableCSV(t, outPath); err != nil {
				return err
			}
			fmt.Printf("encrypted table: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "tabguard_public.pem", "public key path")
	cmd.Flags().StringVar(&keyURL, "key-url", "", "fetch the public key from this URL instead of a file")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to encrypt")
	cmd.Flags().StringVar(&outPath, "out", "encrypted.csv", "output table path")
	cmd.Flags().StringVar(&lookupPath, "lookup", "", "externalize ciphertext into this lookup CSV")
	cmd.Flags().StringVar(&lookupDB, "lookup-db", "", "externalize ciphertext into this Postgres DSN")
	cmd.Flags().StringVar(&dataset, "dataset", "default", "dataset name for database-backed lookup tables")
	cmd.MarkFlagRequired("columns")
	return cmd
}

// loadOrFetchPublicKey prefers a remote key when a URL is given, so data
// holders can encrypt against a key published by its custodian.
func loadOrFetchPublicKey(cmd *cobra.Command, keyPath, keyURL string) (*crypto.PublicKey, error) {
	if keyURL != "" {
		return crypto.FetchPublicKey(cmd.Context(), keyURL)
	}
	return crypto.LoadPublicKey(keyPath)
}

func saveLookupDB(cmd *cobra.Command, dsn, dataset string, side *crypto.LookupTable) error {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("connecting to lookup database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewLookupRepository(db)
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}
	return repo.Save(cmd.Context(), dataset, side)
}

func newDecryptLookupCmd() *cobra.Command {
	var keyPath, lookupPath, lookupDB, dataset string
	var rowKeys []int64

	cmd := &cobra.Command{
		Use:   "decrypt-lookup",
		Short: "Decrypt selected rows of an externalized lookup table",
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase()
			if err != nil {
				return err
			}
			priv, err := crypto.LoadPrivateKey(keyPath)
			if err != nil {
				return err
			}

			var side *crypto.LookupTable
			switch {
			case lookupPath != "":
				side, err = tabular.ReadLookupCSV(lookupPath)
			case lookupDB != "":
				var db *sqlx.DB
				db, err = sqlx.Connect("postgres", lookupDB)
				if err != nil {
					return fmt.Errorf("connecting to lookup database: %w", err)
				}
				defer db.Close()
				side, err = postgres.NewLookupRepository(db).Load(cmd.Context(), dataset)
			default:
				return fmt.Errorf("one of --lookup or --lookup-db is required")
			}
			if err != nil {
				return err
			}

			if len(rowKeys) == 0 {
				for _, row := range side.Rows {
					rowKeys = append(rowKeys, row.Key)
				}
			}
			plain, err := crypto.DecryptLookup(side, rowKeys, priv, passphrase)
			if err != nil {
				return err
			}

			out := make(map[int64]map[string]string, len(plain))
			for key, cells := range plain {
				rendered := make(map[string]string, len(cells))
				for name, cell := range cells {
					rendered[name] = cell.String()
				}
				out[key] = rendered
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "tabguard_private.pem", "private key path")
	cmd.Flags().StringVar(&lookupPath, "lookup", "", "lookup CSV path")
	cmd.Flags().StringVar(&lookupDB, "lookup-db", "", "Postgres DSN holding the lookup table")
	cmd.Flags().StringVar(&dataset, "dataset", "default", "dataset name for database-backed lookup tables")
	cmd.Flags().Int64SliceVar(&rowKeys, "rows", nil, "row keys to decrypt (default all)")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var keyPath, outPath string
	var columns []string

	cmd := &cobra.Command{
		Use:   "decrypt [data-file]",
		Short: "Decrypt columns of a previously encrypted CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase()
			if err != nil {
				return err
			}
			priv, err := crypto.LoadPrivateKey(keyPath)
			if err != nil {
				return err
			}
			t, err := tabular.NewDataReader(args[0]).ReadTable()
			if err != nil {
				return err
			}
			if err := crypto.DecryptColumns(t, columns, priv, passphrase); err != nil {
				return err
			}
			if err := tabular.WriteTableCSV(t, outPath); err != nil {
				return err
			}
			fmt.Printf("decrypted table: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "tabguard_private.pem", "private key path")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to decrypt")
	cmd.Flags().StringVar(&outPath, "out", "decrypted.csv", "output table path")
	cmd.MarkFlagRequired("columns")
	return cmd
}

func newEncryptFileCmd() *cobra.Command {
	var keyPath string

	cmd := &cobra.Command{
		Use:   "encrypt-file [path]",
		Short: "Encrypt a whole file into an opaque container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := crypto.LoadPublicKey(keyPath)
			if err != nil {
				return err
			}
			outPath, err := crypto.EncryptFile(args[0], pub)
			if err != nil {
				return err
			}
			fmt.Printf("encrypted: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "tabguard_public.pem", "public key path")
	return cmd
}

func newDecryptFileCmd() *cobra.Command {
	var keyPath, outPath string

	cmd := &cobra.Command{
		Use:   "decrypt-file [path]",
		Short: "Decrypt an encrypted container; refuses to overwrite the input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase()
			if err != nil {
				return err
			}
			priv, err := crypto.LoadPrivateKey(keyPath)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], crypto.EncryptedExtension)
			}
			if err := crypto.DecryptFile(args[0], priv, passphrase, outPath); err != nil {
				return err
			}
			fmt.Printf("decrypted: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "tabguard_private.pem", "private key path")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to input without "+crypto.EncryptedExtension+")")
	return cmd
}

func newGlimpseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glimpse [data-file]",
		Short: "Profile the columns of a CSV/XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tabular.NewDataReader(args[0]).ReadTable()
			if err != nil {
				return err
			}
			profiles, err := stats.NewInspector().Glimpse(t, t.ColumnNames())
			if err != nil {
				return err
			}
			return printJSON(profiles)
		},
	}
	return cmd
}

func newPatternCmd() *cobra.Command {
	var dependent string
	var explanatory []string

	cmd := &cobra.Command{
		Use:   "pattern [data-file]",
		Short: "Tabulate missingness patterns across the analysis columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tabular.NewDataReader(args[0]).ReadTable()
			if err != nil {
				return err
			}
			patterns, err := stats.NewInspector().MissingPattern(t, dependent, explanatory)
			if err != nil {
				return err
			}
			return printJSON(patterns)
		},
	}

	cmd.Flags().StringVar(&dependent, "dependent", "", "dependent column")
	cmd.Flags().StringSliceVar(&explanatory, "explanatory", nil, "explanatory columns")
	cmd.MarkFlagRequired("dependent")
	cmd.MarkFlagRequired("explanatory")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var target string
	var explanatory []string
	var fillMode string

	cmd := &cobra.Command{
		Use:   "compare [data-file]",
		Short: "Test explanatory columns against a target column's missingness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tabular.NewDataReader(args[0]).ReadTable()
			if err != nil {
				return err
			}
			inspector := stats.NewInspector()
			comparison, err := inspector.MissingCompare(t, target, explanatory)
			if err != nil {
				return err
			}
			if fillMode != "" {
				grid, err := inspector.MissingPairs(t, target, explanatory, missing.FillMode(fillMode))
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"comparison": comparison, "pairs": grid})
			}
			return printJSON(comparison)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "column whose missingness is being explained")
	cmd.Flags().StringSliceVar(&explanatory, "explanatory", nil, "explanatory columns")
	cmd.Flags().StringVar(&fillMode, "pairs", "", "also emit pairwise summaries (count or proportion)")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("explanatory")
	return cmd
}

// passphrasePolicy builds the complexity policy from environment
// configuration, falling back to the defaults when loading fails.
func passphrasePolicy() crypto.PassphrasePolicy {
	cfg, err := config.Load()
	if err != nil {
		return crypto.DefaultPassphrasePolicy()
	}
	return crypto.PassphrasePolicy{
		MinLength:    cfg.Crypto.MinPassphraseLength,
		RequireUpper: cfg.Crypto.RequireUpper,
		RequireLower: cfg.Crypto.RequireLower,
		RequireDigit: cfg.Crypto.RequireDigit,
		RequirePunct: cfg.Crypto.RequirePunct,
	}
}

// readPassphrase takes the passphrase from the environment so it never
// appears in shell history or process listings.
func readPassphrase() (string, error) {
	passphrase := os.Getenv("TABGUARD_PASSPHRASE")
	if passphrase == "" {
		return "", fmt.Errorf("TABGUARD_PASSPHRASE is not set")
	}
	return passphrase, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
