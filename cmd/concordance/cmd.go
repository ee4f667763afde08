package cmd

import (
	"fmt"
	"os"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/internal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	log = internal.GetLogger()

	cfgFile     string
	showVersion bool
	dumpConfig  bool
)

var cmd = &cobra.Command{
	Use:   "concordance",
	Short: "concordance compares two language versions of a legal document and reports where they disagree",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for the configuration file",
	Example: "concordance json-schema > config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	cmd.AddCommand(dumpJsonSchemaCmd)
	cmd.AddCommand(checkCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")

	checkCmd.Flags().StringVar(&checkDocA, "doc-a", "", "paragraph file of document A (JSON or YAML)")
	checkCmd.Flags().StringVar(&checkDocB, "doc-b", "", "paragraph file of document B (JSON or YAML)")
	checkCmd.Flags().StringVar(&checkPrimLang, "prim-lang", "", "language of document A")
	checkCmd.Flags().StringVar(&checkSecLang, "sec-lang", "", "language of document B")
	checkCmd.Flags().BoolVar(&checkNoJudge, "no-judge", false, "skip the judge pass")
	_ = checkCmd.MarkFlagRequired("doc-a")
	_ = checkCmd.MarkFlagRequired("doc-b")
}

// Execute executes the root cobra command.
func Execute() {
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		redacted := *cfg
		redacted.Watsonx.APIKey = redact(cfg.Watsonx.APIKey)
		redacted.LLM.OpenAIAPIKey = redact(cfg.LLM.OpenAIAPIKey)
		redacted.Store.Postgres.DSN = redact(cfg.Store.Postgres.DSN)
		redacted.Store.Redis.Password = redact(cfg.Store.Redis.Password)
		out, err := yaml.Marshal(redacted)
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Print(string(out))
		os.Exit(0)
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
