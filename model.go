package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-revenue-forecaster/forecast"
)

// Model is the serializeable format of a trained Forecaster
type Model struct {
	Options  *Options       `json:"options"`
	Series   forecast.Model `json:"series_model"`
	Residual forecast.Model `json:"residual_model"`
}

// TablePrint writes the series and uncertainty models in a human readable format
func (m Model) TablePrint(w io.Writer) error {
	if m.Options != nil {
		if err := m.Options.TablePrint(w, "", "  "); err != nil {
			return fmt.Errorf("unable to print options, %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, "Series:"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "  ", "  "); err != nil {
		return fmt.Errorf("unable to print series model, %w", err)
	}
	if _, err := fmt.Fprintln(w, "Uncertainty:"); err != nil {
		return err
	}
	if err := m.Residual.TablePrint(w, "  ", "  "); err != nil {
		return fmt.Errorf("unable to print uncertainty model, %w", err)
	}
	return nil
}
