package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PeerlyPay/peerlypay/cmd/internal/atomicfile"
	"github.com/PeerlyPay/peerlypay/config"
	"github.com/PeerlyPay/peerlypay/escrow"
	"github.com/PeerlyPay/peerlypay/observability/logging"
)

const serviceName = "escrow-payload"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var stdin io.Reader = os.Stdin

type buildInputs struct {
	engagementID    string
	title           string
	description     string
	amount          string
	platformFeeBps  string
	tokenContractID string
	approver        string
	serviceProvider string
	platformAddress string
	releaseSigner   string
	disputeResolver string
	receiver        string
	receiverMemo    string
	milestonesJSON  string
	milestonesFile  string
	output          string
	configPath      string
	envFile         string
	logLevel        string
	logFormat       string
}

type inputFlag struct {
	name  string
	dst   *string
	def   string
	usage string
}

func (in *buildInputs) flags() []inputFlag {
	return []inputFlag{
		{"engagement-id", &in.engagementID, "", "engagement identifier (required)"},
		{"title", &in.title, "", "engagement title (required)"},
		{"description", &in.description, "", "engagement description (required)"},
		{"amount", &in.amount, "", "escrow amount as a non-negative integer (required)"},
		{"platform-fee-bps", &in.platformFeeBps, "", "platform fee in basis points, at most 9970 (required)"},
		{"token-contract-id", &in.tokenContractID, "", "token contract address used as the trustline (required)"},
		{"approver", &in.approver, "", "approver address (required)"},
		{"service-provider", &in.serviceProvider, "", "service provider address (required)"},
		{"platform-address", &in.platformAddress, "", "platform address (required)"},
		{"release-signer", &in.releaseSigner, "", "release signer address (required)"},
		{"dispute-resolver", &in.disputeResolver, "", "dispute resolver address (required)"},
		{"receiver", &in.receiver, "", "receiver address (required)"},
		{"receiver-memo", &in.receiverMemo, "0", "receiver memo"},
		{"milestones-json", &in.milestonesJSON, "", "JSON array of milestones; empty yields one default milestone"},
		{"milestones-file", &in.milestonesFile, "", "path to a JSON or YAML milestone list"},
		{"output", &in.output, "", "output file path, or - for stdout (required)"},
		{"config", &in.configPath, "", "TOML profile with default inputs"},
		{"env-file", &in.envFile, "", "dotenv file loaded before reading ESCROW_* variables"},
		{"log-level", &in.logLevel, "info", "log level: debug, info, warn or error"},
		{"log-format", &in.logFormat, "auto", "log format: auto, text or json"},
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "build":
			return runBuild(args[1:], stdout, stderr)
		case "verify":
			return runVerify(args[1:], stdout, stderr)
		case "help":
			fmt.Fprintln(stdout, usage())
			return exitOK
		}
	}
	return runBuild(args, stdout, stderr)
}

func usage() string {
	return strings.TrimSpace(`
Usage:
  escrow-payload [build] --engagement-id ID --title T --description D --amount N
                 --platform-fee-bps BPS --token-contract-id C --approver A
                 --service-provider A --platform-address A --release-signer A
                 --dispute-resolver A --receiver A --output PATH [flags]
  escrow-payload verify --input PATH

Builds the JSON payload used to initialise an escrow engagement. Inputs not
given as flags are read from ESCROW_<FLAG> environment variables, then from
the --config TOML profile.

Run "escrow-payload build -h" for the full flag list.`)
}

func runBuild(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var in buildInputs
	inputs := in.flags()
	for _, f := range inputs {
		fs.StringVar(f.dst, f.name, f.def, f.usage)
	}
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage())
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		return printUsageError(stderr, "unexpected positional arguments")
	}
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	bootstrap := config.NewResolver(nil)
	envFile, _ := bootstrap.Resolve("env-file", in.envFile, explicit["env-file"])
	if err := config.LoadEnvFile(envFile); err != nil {
		return printError(stderr, err)
	}
	configPath, _ := bootstrap.Resolve("config", in.configPath, explicit["config"])
	var profile *config.Profile
	if strings.TrimSpace(configPath) != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return printError(stderr, err)
		}
		profile = loaded
	}

	resolver := config.NewResolver(profile)
	sources := make(map[string]config.Source, len(inputs))
	for _, f := range inputs {
		value, src := resolver.Resolve(f.name, *f.dst, explicit[f.name])
		*f.dst = value
		sources[f.name] = src
	}

	logger, err := logging.Setup(logging.Options{
		Service: serviceName,
		Level:   in.logLevel,
		Format:  in.logFormat,
		Writer:  stderr,
	})
	if err != nil {
		return printUsageError(stderr, err.Error())
	}
	for _, f := range inputs {
		if sources[f.name] != config.SourceDefault {
			logger.Debug("input resolved", "input", f.name, "source", string(sources[f.name]))
		}
	}

	if msg := missingInput(inputs); msg != "" {
		return printUsageError(stderr, msg)
	}
	if !escrow.IsDecimalInteger(in.amount) {
		return printUsageError(stderr, "--amount must be an integer")
	}
	feeBps, err := strconv.ParseInt(strings.TrimSpace(in.platformFeeBps), 10, 64)
	if err != nil {
		return printUsageError(stderr, "--platform-fee-bps must be an integer")
	}
	memo, err := strconv.ParseInt(strings.TrimSpace(in.receiverMemo), 10, 64)
	if err != nil {
		return printUsageError(stderr, "--receiver-memo must be an integer")
	}
	milestonesJSON, milestonesFile, err := pickMilestoneSource(in, sources)
	if err != nil {
		return printUsageError(stderr, err.Error())
	}

	var milestones []escrow.Milestone
	if milestonesFile != "" {
		milestones, err = escrow.ParseMilestonesFile(milestonesFile)
	} else {
		milestones, err = escrow.ParseMilestonesJSON(milestonesJSON)
	}
	if err != nil {
		return printError(stderr, err)
	}

	payload, err := escrow.Build(escrow.Params{
		EngagementID: in.engagementID,
		Title:        in.title,
		Description:  in.description,
		Roles: escrow.Roles{
			Approver:        in.approver,
			ServiceProvider: in.serviceProvider,
			PlatformAddress: in.platformAddress,
			ReleaseSigner:   in.releaseSigner,
			DisputeResolver: in.disputeResolver,
			Receiver:        in.receiver,
		},
		Amount:          in.amount,
		PlatformFeeBps:  feeBps,
		TokenContractID: in.tokenContractID,
		ReceiverMemo:    memo,
		Milestones:      milestones,
	})
	if err != nil {
		return printError(stderr, err)
	}

	if in.output == "-" {
		err = payload.Encode(stdout)
	} else {
		err = atomicfile.Write(in.output, 0o644, payload.Encode)
	}
	if err != nil {
		return printError(stderr, fmt.Errorf("write payload: %w", err))
	}

	logger.Info("escrow payload written",
		"engagement_id", payload.EngagementID,
		"output", in.output,
		"milestones", len(payload.Milestones),
		"amount", escrow.FormatAmount(payload.Amount),
		"platform_fee_bps", payload.PlatformFeeBps,
		"total_fee_bps", payload.TotalFeeBps(),
		logging.MaskField("receiver", payload.Roles.Receiver),
		logging.MaskField("token_contract_id", payload.Trustline.Address),
	)
	return exitOK
}

// missingInput returns the error message for the first required input that
// resolved to a blank value.
func missingInput(inputs []inputFlag) string {
	for _, f := range inputs {
		if !strings.HasSuffix(f.usage, "(required)") {
			continue
		}
		if strings.TrimSpace(*f.dst) == "" {
			return fmt.Sprintf("--%s is required", f.name)
		}
	}
	return ""
}

var sourceRank = map[config.Source]int{
	config.SourceDefault: 0,
	config.SourceProfile: 1,
	config.SourceEnv:     2,
	config.SourceFlag:    3,
}

// pickMilestoneSource chooses between inline JSON and a milestone file. When
// both are set the one from the higher precedence source wins; setting both at
// the same level is an error.
func pickMilestoneSource(in buildInputs, sources map[string]config.Source) (string, string, error) {
	inline := strings.TrimSpace(in.milestonesJSON) != ""
	file := strings.TrimSpace(in.milestonesFile) != ""
	if !inline || !file {
		return in.milestonesJSON, in.milestonesFile, nil
	}
	inlineRank := sourceRank[sources["milestones-json"]]
	fileRank := sourceRank[sources["milestones-file"]]
	switch {
	case inlineRank > fileRank:
		return in.milestonesJSON, "", nil
	case fileRank > inlineRank:
		return "", in.milestonesFile, nil
	default:
		return "", "", errors.New("--milestones-json and --milestones-file are mutually exclusive")
	}
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(serviceName+" verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "payload file to verify, or - for stdin")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		return printUsageError(stderr, "unexpected positional arguments")
	}
	path := strings.TrimSpace(*input)
	if path == "" {
		return printUsageError(stderr, "--input is required")
	}

	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return printError(stderr, err)
		}
		defer f.Close()
		r = f
	}
	payload, err := escrow.DecodePayload(r)
	if err != nil {
		return printError(stderr, err)
	}
	fmt.Fprintf(stdout, "%s: valid escrow payload for engagement %s (%d milestones, amount %s, platform fee %d bps)\n",
		path, payload.EngagementID, len(payload.Milestones), escrow.FormatAmount(payload.Amount), payload.PlatformFeeBps)
	return exitOK
}

func printError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFailure
}

func printUsageError(stderr io.Writer, msg string) int {
	fmt.Fprintf(stderr, "Error: %s\n", msg)
	fmt.Fprintf(stderr, "Run \"%s help\" for usage.\n", serviceName)
	return exitUsage
}
