package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/mnist/internal/dataset"
	"github.com/born-ml/mnist/internal/envconfig"
	"github.com/born-ml/mnist/internal/fetch"
	"github.com/born-ml/mnist/internal/idx"
	"github.com/born-ml/mnist/internal/tensor"
)

const version = "v0.1.0"

// appendEnvDocs adds the environment variables to the command's usage.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func sortedEnvs() []envconfig.EnvVar {
	m := envconfig.AsMap()
	envs := make([]envconfig.EnvVar, 0, len(m))
	for _, e := range m {
		envs = append(envs, e)
	}
	slices.SortFunc(envs, func(a, b envconfig.EnvVar) int { return strings.Compare(a.Name, b.Name) })
	return envs
}

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "mnist",
		Short:         "Fetch, inspect and sample the MNIST dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := envconfig.LogLevel()
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "mnist version %s\n", version)
				return
			}
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	fetchCmd := &cobra.Command{
		Use:   "fetch [FILE...]",
		Short: "Download dataset files into the cache directory",
		Long:  "Download dataset files into the cache directory. With no arguments all four MNIST files are fetched.",
		RunE:  FetchHandler,
	}
	fetchCmd.Flags().String("dir", "", "Cache directory (default $MNIST_CACHE_DIR or the system temp dir)")
	fetchCmd.Flags().String("base-url", "", "Base URL to download from (default $MNIST_BASE_URL)")
	fetchCmd.Flags().BoolP("force", "f", false, "Download even if the file is already cached")

	inspectCmd := &cobra.Command{
		Use:   "inspect PATH...",
		Short: "Decode IDX files and show their type and shape",
		Args:  cobra.MinimumNArgs(1),
		RunE:  InspectHandler,
	}
	inspectCmd.Flags().Bool("classes", false, "Show per-label counts for rank-1 files")

	sampleCmd := &cobra.Command{
		Use:   "sample LABEL=COUNT...",
		Short: "Draw a label-balanced subset and write it as IDX files",
		Example: `  mnist sample 3=5 7=2
  mnist sample --split test --seed 7 --out ./subset 0=100 1=100`,
		Args: cobra.MinimumNArgs(1),
		RunE: SampleHandler,
	}
	sampleCmd.Flags().String("split", "train", "Split to sample from (train or test)")
	sampleCmd.Flags().Int64("seed", envconfig.Seed(), "Random seed (default $MNIST_SEED or 1)")
	sampleCmd.Flags().String("out", ".", "Directory to write the sampled images and labels to")
	sampleCmd.Flags().Bool("gzip", false, "Gzip the output files")
	sampleCmd.Flags().String("dir", "", "Cache directory (default $MNIST_CACHE_DIR or the system temp dir)")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show the effective environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	envs := sortedEnvs()
	for _, cmd := range []*cobra.Command{fetchCmd, sampleCmd} {
		appendEnvDocs(cmd, envs)
	}

	rootCmd.AddCommand(fetchCmd, inspectCmd, sampleCmd, envCmd)
	return rootCmd
}

func newFetcher(cmd *cobra.Command) *fetch.Fetcher {
	cfg := fetch.Config{
		BaseURL:  envconfig.BaseURL(),
		CacheDir: envconfig.CacheDir(),
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.CacheDir = dir
	}
	if cmd.Flags().Lookup("base-url") != nil {
		if u, _ := cmd.Flags().GetString("base-url"); u != "" {
			cfg.BaseURL = u
		}
	}
	return fetch.New(cfg)
}

// FetchHandler downloads the requested files.
func FetchHandler(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = dataset.Files
	}
	force, _ := cmd.Flags().GetBool("force")

	f := newFetcher(cmd)
	paths, err := f.FetchAll(cmd.Context(), names, force)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

// InspectHandler decodes each file and prints a summary table.
func InspectHandler(cmd *cobra.Command, args []string) error {
	classes, _ := cmd.Flags().GetBool("classes")

	var data [][]string
	var decoded []*tensor.RawTensor
	for _, path := range args {
		t, err := decodeFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		tag, _ := idx.TypeOf(t.DType())
		data = append(data, []string{filepath.Base(path), tag.String(), t.Shape().String(), strconv.Itoa(t.NumElements())})
		decoded = append(decoded, t)
	}

	out := cmd.OutOrStdout()
	renderTable(out, []string{"FILE", "TYPE", "SHAPE", "ELEMENTS"}, data)

	if !classes {
		return nil
	}
	for i, t := range decoded {
		if len(t.Shape()) != 1 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", filepath.Base(args[i]))
		renderTable(out, []string{"LABEL", "COUNT"}, classRows(dataset.ClassCounts(t)))
	}
	return nil
}

func decodeFile(path string) (*tensor.RawTensor, error) {
	rc, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return idx.Decode(rc)
}

func classRows(counts map[int]int) [][]string {
	labels := make([]int, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{strconv.Itoa(l), strconv.Itoa(counts[l])})
	}
	return rows
}

// SampleHandler draws a label-balanced subset and writes it to disk.
func SampleHandler(cmd *cobra.Command, args []string) error {
	counts, err := parseCounts(args)
	if err != nil {
		return err
	}

	splitName, _ := cmd.Flags().GetString("split")
	split, err := dataset.ParseSplit(splitName)
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	outDir, _ := cmd.Flags().GetString("out")
	compress, _ := cmd.Flags().GetBool("gzip")

	s := dataset.NewSampler(dataset.New(newFetcher(cmd)), dataset.SamplerConfig{Seed: seed})
	images, labels, err := s.Sample(cmd.Context(), counts, split)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	ext := ""
	if compress {
		ext = ".gz"
	}
	imagesPath := filepath.Join(outDir, fmt.Sprintf("%s-sample-images-idx%d-ubyte%s", split, len(images.Shape()), ext))
	labelsPath := filepath.Join(outDir, fmt.Sprintf("%s-sample-labels-idx%d-ubyte%s", split, len(labels.Shape()), ext))
	if err := writeIDX(imagesPath, images); err != nil {
		return err
	}
	if err := writeIDX(labelsPath, labels); err != nil {
		return err
	}

	slog.Info("sampled", "split", split, "images", images.Shape().String(), "seed", seed)
	fmt.Fprintln(cmd.OutOrStdout(), imagesPath)
	fmt.Fprintln(cmd.OutOrStdout(), labelsPath)
	return nil
}

// parseCounts parses LABEL=COUNT (or LABEL:COUNT) arguments, keeping
// their order.
func parseCounts(args []string) (*dataset.Counts, error) {
	pairs := make([]dataset.LabelCount, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			k, v, ok = strings.Cut(arg, ":")
		}
		if !ok {
			return nil, fmt.Errorf("invalid count %q: expected LABEL=COUNT", arg)
		}
		label, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("invalid label in %q: %w", arg, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid count in %q: %w", arg, err)
		}
		pairs = append(pairs, dataset.LabelCount{Label: label, Count: count})
	}
	return dataset.NewCounts(pairs...), nil
}

func writeIDX(path string, t *tensor.RawTensor) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return idx.Encode(f, t)
	}
	zw := gzip.NewWriter(f)
	if err := idx.Encode(zw, t); err != nil {
		return err
	}
	return zw.Close()
}

// EnvHandler prints the recognized environment variables.
func EnvHandler(cmd *cobra.Command, _ []string) error {
	var data [][]string
	for _, e := range sortedEnvs() {
		data = append(data, []string{e.Name, fmt.Sprint(e.Value), e.Description})
	}
	renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
	return nil
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
