package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strada/internal/observ"
	"strada/internal/scenario"
	"strada/rt"
)

// resultPackage is the class snapshot entries are blessed into.
const resultPackage = "Strada::ScenarioResult"

var dumpCmd = &cobra.Command{
	Use:   "dump <snapshot>",
	Short: "Print a value snapshot in Data::Dumper style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		v, err := rt.DecodeSnapshot(bufio.NewReader(f))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		defer rt.Decref(v)
		return rt.Dump(cmd.OutOrStdout(), v)
	},
}

// resultsValue converts run results into a runtime array of blessed hashes.
func resultsValue(results []scenario.Result) *rt.Value {
	list := rt.AnonArray()
	arr := rt.DerefArray(list)
	arr.Reserve(len(results))
	for _, r := range results {
		entry := rt.AnonHash()
		h := rt.DerefHash(entry)
		h.SetTake("name", rt.NewStr(r.Name))
		status := "ok"
		if r.Err != nil {
			status = "failed"
			h.SetTake("error", rt.NewStr(r.Err.Error()))
		}
		h.SetTake("status", rt.NewStr(status))
		h.SetTake("elapsed_ms", rt.NewNum(observ.DurationToMillis(r.Elapsed)))
		h.SetTake("live_delta", rt.NewInt(r.Live))
		h.SetTake("output", rt.NewStr(r.Output))
		if err := rt.Bless(entry, resultPackage); err != nil {
			panic(err)
		}
		arr.PushTake(entry)
	}
	return list
}

func writeResultSnapshot(path string, results []scenario.Result) (err error) {
	v := resultsValue(results)
	defer rt.Decref(v)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("snapshot: %w", closeErr)
		}
	}()
	w := bufio.NewWriter(f)
	if err := rt.EncodeSnapshot(w, v); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return w.Flush()
}
