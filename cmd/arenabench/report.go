package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	arena "github.com/pavanmanishd/regionarena"
	"github.com/pavanmanishd/regionarena/internal/workload"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func bytesCell(n int) string {
	return humanize.IBytes(uint64(n))
}

func countCell[T int | uint64](n T) string {
	return humanize.Comma(int64(n))
}

func printResult(out io.Writer, w workload.Workload, cfg arena.Config, res workload.Result) {
	fmt.Fprintf(out, "workload %q on %s backend, %s chunks, alignment %d\n\n",
		w.Name, cfg.Backend, bytesCell(cfg.MaxChunkSize), cfg.Alignment)

	table := newTable(out, "Workload", "Value")
	table.AppendBulk([][]string{
		{"allocations", countCell(res.Allocs)},
		{"large allocations", countCell(res.LargeAllocs)},
		{"grows (in place)", fmt.Sprintf("%s (%s)", countCell(res.Grows), countCell(res.InPlaceGrows))},
		{"resets", countCell(res.Resets)},
		{"bytes requested", bytesCell(res.Bytes)},
		{"peak in use", bytesCell(res.PeakInUse)},
		{"peak capacity", bytesCell(res.PeakCapacity)},
		{"elapsed", res.Elapsed.String()},
	})
	table.Render()
	fmt.Fprintln(out)
	printMetrics(out, res.Metrics)
}

func printMetrics(out io.Writer, m arena.Metrics) {
	table := newTable(out, "Arena", "Value")
	table.AppendBulk([][]string{
		{"chunks (large)", fmt.Sprintf("%d (%d)", m.NumChunks, m.LargeChunks)},
		{"in use", bytesCell(m.SizeInUse)},
		{"capacity", bytesCell(m.Capacity)},
		{"cached", bytesCell(m.CachedBytes)},
		{"utilization", strconv.FormatFloat(m.Utilization*100, 'f', 1, 64) + "%"},
		{"resizes in place / copied", fmt.Sprintf("%s / %s", countCell(m.InPlaceResizes), countCell(m.CopyResizes))},
		{"chunk reuses", countCell(m.ChunkReuses)},
		{"backend allocate", countCell(m.BackendAllocs)},
		{"backend deallocate", countCell(m.BackendDeallocs)},
		{"backend resize", countCell(m.BackendResizes)},
	})
	table.Render()
}

func printTrace(out io.Writer, cfg arena.Config, tr workload.Trace) {
	fmt.Fprintf(out, "scenario on %s backend, %s chunks\n\n", cfg.Backend, bytesCell(cfg.MaxChunkSize))

	table := newTable(out, "Step", "Observed")
	table.AppendBulk([][]string{
		{"alloc 100, alloc 50", fmt.Sprintf("second starts %d bytes after first", tr.Gap)},
		{"resize first to 60", fmt.Sprintf("moved=%t prefix kept=%t", tr.Moved, tr.PrefixKept)},
		{"reset", fmt.Sprintf("released %s in use", bytesCell(tr.InUseAtReset))},
		{"alloc one full chunk", fmt.Sprintf("%d new backend allocations", tr.ChunkAllocs)},
	})
	table.Render()
	fmt.Fprintln(out)
	printMetrics(out, tr.Metrics)
}
