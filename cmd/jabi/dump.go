package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jabi/internal/classfile"
	"jabi/internal/dump"
	jabierrors "jabi/internal/errors"
	"jabi/internal/mirror"
)

var (
	dumpFormat string
	dumpEntry  string
	dumpCodec  string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <abi.jar|class-file>",
	Short: "Print the decoded ABI surface of an archive or single class",
	Long: `Dump decodes classes and prints their ABI surface in replay order:
header, annotations, fields, methods.

The input is an ABI archive or a single encoded class file.

Examples:
  jabi dump out/abi.jar
  jabi dump out/abi.jar --entry com/example/Shape.class
  jabi dump out/abi.jar --format json
  jabi dump build/classes/com/example/Shape.class --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "text", "Output format (text, json, yaml)")
	dumpCmd.Flags().StringVar(&dumpEntry, "entry", "", "Dump only the named archive entry")
	dumpCmd.Flags().StringVar(&dumpCodec, "codec", "", "Class codec (default from config)")
	rootCmd.AddCommand(dumpCmd)
}

// namedEntry is one class selected for decoding.
type namedEntry struct {
	name string
	data []byte
}

// namedClass pairs an entry name with its decoded surface.
type namedClass struct {
	name   string
	mirror *mirror.ClassMirror
}

func runDump(cmd *cobra.Command, args []string) error {
	root, err := workRoot()
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to resolve workspace root", err)
	}
	cfg, err := loadWorkConfig(root)
	if err != nil {
		return err
	}

	codecName := resolveCodec(dumpCodec, cfg)
	codec, err := classfile.Lookup(codecName)
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.CodecUnknown,
			fmt.Sprintf("Unknown codec %q", codecName), err).
			WithDetails(map[string]interface{}{"registered": classfile.Names()})
	}

	classes, err := loadClasses(args[0], codec)
	if err != nil {
		return err
	}

	switch dumpFormat {
	case "text":
		for i, c := range classes {
			if i > 0 {
				fmt.Println()
			}
			p := dump.NewPrinter()
			c.mirror.Replay(p)
			fmt.Print(p.String())
		}
	case "json":
		data, err := json.MarshalIndent(collectSummaries(classes), "", "  ")
		if err != nil {
			return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to marshal summaries", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(collectSummaries(classes))
		if err != nil {
			return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to marshal summaries", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unsupported format: %s (expected text, json, or yaml)", dumpFormat)
	}
	return nil
}

func collectSummaries(classes []namedClass) []*dump.ClassSummary {
	summaries := make([]*dump.ClassSummary, 0, len(classes))
	for _, c := range classes {
		collector := dump.NewCollector()
		c.mirror.Replay(collector)
		summaries = append(summaries, collector.Summary())
	}
	return summaries
}

// loadClasses reads the input path and decodes each selected class. Archive
// entries come back sorted by name so output order is stable.
func loadClasses(path string, codec classfile.Codec) ([]namedClass, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InputUnreadable,
			fmt.Sprintf("Cannot read input %s", path), err)
	}

	var entries []namedEntry
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		entries, err = readArchiveEntries(path)
		if err != nil {
			return nil, err
		}
	} else {
		name := filepath.Base(path)
		if dumpEntry != "" && dumpEntry != name {
			return nil, fmt.Errorf("entry %q not found in %s", dumpEntry, path)
		}
		entries = []namedEntry{{name: name, data: data}}
	}

	return decodeClasses(codec, entries)
}

func readArchiveEntries(path string) ([]namedEntry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
			fmt.Sprintf("%s is not a readable archive", path), err)
	}
	defer zr.Close()

	var entries []namedEntry
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if dumpEntry != "" {
			if f.Name != dumpEntry {
				continue
			}
		} else if !strings.HasSuffix(f.Name, ".class") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("Cannot open archive entry %s", f.Name), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("Cannot read archive entry %s", f.Name), err)
		}
		entries = append(entries, namedEntry{name: f.Name, data: data})
	}

	if dumpEntry != "" && len(entries) == 0 {
		return nil, fmt.Errorf("entry %q not found in %s", dumpEntry, path)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func decodeClasses(codec classfile.Codec, entries []namedEntry) ([]namedClass, error) {
	classes := make([]namedClass, 0, len(entries))
	for _, e := range entries {
		m := mirror.NewClassMirror(e.name)
		if err := codec.Decode(e.data, m); err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("Cannot decode %s", e.name), err).
				WithDetails(map[string]interface{}{"entry": e.name})
		}
		classes = append(classes, namedClass{name: e.name, mirror: m})
	}
	return classes, nil
}
