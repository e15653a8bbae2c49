package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dispatchlab/mockloop/datarecording"
	"github.com/dispatchlab/mockloop/looptest"
)

var (
	traceDB     string
	traceLimit  int
	traceOffset int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect a recorded dispatch trace.",
	Long: "`trace count` reports the number of recorded dispatches. " +
		"`trace dump` prints the recorded dispatches in order.",
}

var traceCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Report the number of recorded dispatches.",
	Run: func(cmd *cobra.Command, args []string) {
		reader := openTraceReader()
		defer reader.Close()

		_, total, err := reader.Query(
			context.Background(),
			looptest.DispatchTraceTable,
			datarecording.QueryParams{Limit: 1},
		)
		if err != nil {
			log.Fatalf("Error reading trace: %v", err)
		}

		fmt.Printf("%d dispatches recorded\n", total)
	},
}

var traceDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the recorded dispatches in order.",
	Run: func(cmd *cobra.Command, args []string) {
		reader := openTraceReader()
		defer reader.Close()

		results, total, err := reader.Query(
			context.Background(),
			looptest.DispatchTraceTable,
			datarecording.QueryParams{
				OrderBy: "Seq",
				Limit:   traceLimit,
				Offset:  traceOffset,
			},
		)
		if err != nil {
			log.Fatalf("Error reading trace: %v", err)
		}

		for _, result := range results {
			rec := result.(*looptest.DispatchRecord)
			fmt.Printf("%6d  msg %-22s when %8d  now %8d  async=%-5t  %s\n",
				rec.Seq, rec.MsgID, rec.When, rec.Now, rec.Async, rec.Handler)
		}

		fmt.Printf("%d of %d dispatches shown\n", len(results), total)
	},
}

func openTraceReader() datarecording.DataReader {
	db := traceDB
	if db == "" {
		db = os.Getenv("MOCKLOOP_TRACE_DB")
	}

	if db == "" {
		log.Fatal("Error: no trace database specified, " +
			"use --db or MOCKLOOP_TRACE_DB")
	}

	reader := datarecording.NewReader(db)
	reader.MapTable(looptest.DispatchTraceTable, looptest.DispatchRecord{})

	return reader
}

func init() {
	traceCmd.PersistentFlags().StringVar(&traceDB, "db", "",
		"path to the recorded trace database (.sqlite3 file)")
	traceDumpCmd.Flags().IntVar(&traceLimit, "limit", 0,
		"maximum number of dispatches to print, 0 for all")
	traceDumpCmd.Flags().IntVar(&traceOffset, "offset", 0,
		"number of dispatches to skip")

	traceCmd.AddCommand(traceCountCmd)
	traceCmd.AddCommand(traceDumpCmd)
	rootCmd.AddCommand(traceCmd)
}
