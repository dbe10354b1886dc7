// Command afli-evaluate replays a workload file against an index and
// reports its statistics, per spec §6's CLI surface. It does not attempt
// to reproduce the original benchmark harness's timing/throughput
// machinery (spec's Non-goals) — it drives the workload and prints the
// resulting Stats.
package main

import (
	"fmt"
	"os"

	"github.com/aflidb/afli"
	"github.com/aflidb/afli/workload"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: afli-evaluate <index-name> <batch-size> <workload-path> <key-type> [config-path] [show-incremental]")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 4 {
		usage()
		return 1
	}
	indexName := args[0]
	workloadPath := args[2]
	keyType := args[3]
	showIncremental := len(args) >= 6 && args[5] == "true"

	if indexName != "afli" {
		fmt.Fprintf(os.Stderr, "afli-evaluate: unknown index %q\n", indexName)
		return 1
	}
	if keyType != "int64" && keyType != "float64" {
		fmt.Fprintf(os.Stderr, "afli-evaluate: unsupported key type %q (want int64 or float64)\n", keyType)
		return 1
	}

	f, err := os.Open(workloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "afli-evaluate: %v\n", err)
		return 1
	}
	defer f.Close()

	switch keyType {
	case "int64":
		return runWorkload(workload.Int64Codec(), f, showIncremental)
	default:
		return runWorkload(workload.Float64Codec(), f, showIncremental)
	}
}

func runWorkload[K afli.Key](codec workload.Codec[K, int64], f *os.File, showIncremental bool) int {
	records, err := codec.ReadFile(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "afli-evaluate: %v\n", err)
		return 1
	}

	idx := afli.NewIndex[K, int64]()
	var initial []afli.Pair[K, int64]
	var rest []workload.Record[K, int64]
	for _, rec := range records {
		if rec.Op == workload.OpBulkLoad {
			initial = append(initial, afli.Pair[K, int64]{Key: rec.Key, Value: rec.Value})
		} else {
			rest = append(rest, rec)
		}
	}
	idx.BulkLoad(initial, 0, 0)

	var processed int
	for _, rec := range rest {
		switch rec.Op {
		case workload.OpQuery:
			idx.Find(rec.Key)
		case workload.OpUpdate:
			idx.Update(afli.Pair[K, int64]{Key: rec.Key, Value: rec.Value})
		case workload.OpInsert:
			idx.Insert(afli.Pair[K, int64]{Key: rec.Key, Value: rec.Value})
		case workload.OpDelete:
			idx.Remove(rec.Key)
		default:
			fmt.Fprintf(os.Stderr, "afli-evaluate: unknown op code %d\n", rec.Op)
			return 1
		}
		processed++
		if showIncremental && processed%10000 == 0 {
			printStats(idx.Stats(), processed)
		}
	}

	printStats(idx.Stats(), processed)
	return 0
}

func printStats(st afli.Stats, processed int) {
	fmt.Printf("processed=%d model_nodes=%d dense_nodes=%d buckets=%d leaves=%d max_depth=%d avg_conflicts=%.4f model_size=%d index_size=%d\n",
		processed, st.NumModelNodes, st.NumDenseNodes, st.NumBuckets, st.NumLeafNodes, st.MaxDepth, st.AvgConflicts(), st.ModelSizeBytes, st.IndexSizeBytes)
}
