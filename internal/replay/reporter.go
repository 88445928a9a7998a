package replay

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Reporter writes replay reports
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the summary, the valuation CSV and the JSON report.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generateValuationLog(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "replay_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	res := r.results
	fmt.Fprintf(w, "PORTFOLIO REPLAY SUMMARY\n")
	fmt.Fprintf(w, "========================\n\n")

	fmt.Fprintf(w, "Time Period: %s to %s\n",
		res.StartTime.Format("2006-01-02 15:04:05"),
		res.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", res.EndTime.Sub(res.StartTime))
	fmt.Fprintf(w, "Samples: %d\n\n", res.Samples)

	fmt.Fprintf(w, "PERFORMANCE\n")
	fmt.Fprintf(w, "-----------\n")
	fmt.Fprintf(w, "Initial Value: $%.2f\n", res.InitialValue)
	fmt.Fprintf(w, "Final Value: $%.2f\n", res.FinalValue)
	fmt.Fprintf(w, "Peak Value: $%.2f\n", res.PeakValue)
	fmt.Fprintf(w, "Change: $%.2f (%.2f%%)\n", res.Change, res.ChangePct)
	fmt.Fprintf(w, "Unrealised P&L at end: $%.2f\n\n", res.FinalPnL)

	fmt.Fprintf(w, "RISK\n")
	fmt.Fprintf(w, "----\n")
	fmt.Fprintf(w, "Max Drawdown: %.2f%%\n", res.MaxDrawdown)
	fmt.Fprintf(w, "Volatility: %.4f%%\n", res.Volatility)
	fmt.Fprintf(w, "Sharpe Ratio: %.2f\n", res.SharpeRatio)
}

func (r *Reporter) generateValuationLog() error {
	csvPath := filepath.Join(r.outputPath, "valuations.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create valuation log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Time", "Total Value", "Total PnL", "Return %"}); err != nil {
		return err
	}
	for _, p := range r.results.Points {
		record := []string{
			p.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("%.2f", p.Valuation.TotalValue),
			fmt.Sprintf("%.2f", p.Valuation.TotalPnL),
			fmt.Sprintf("%.2f", p.Valuation.TotalReturnPct),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush valuation log: %w", err)
	}

	log.Info().Str("file", csvPath).Msg("Valuation log generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "replay_results.json")

	report := map[string]interface{}{
		"results":      r.results,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// PrintSummary prints a summary to stdout
func (r *Reporter) PrintSummary() {
	fmt.Println()
	r.writeSummary(os.Stdout)
	fmt.Println("========================")
}
