package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/storage"
	"github.com/soltwin/soltwin/pkg/types"
)

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	lflag.Configure()

	ctx := context.Background()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	panels := []types.PanelSpec{
		{
			Manufacturer:      "Jinko Solar",
			Model:             "Tiger Neo 72HL4",
			RatedPowerKW:      0.555,
			Quantity:          60,
			EfficiencyPercent: 21.8,
			AreaM2:            2.58,
			TiltDegrees:       20,
			Orientation:       "sur",
		},
		{
			Manufacturer:      "Canadian Solar",
			Model:             "HiKu6",
			RatedPowerKW:      0.545,
			Quantity:          30,
			EfficiencyPercent: 21.3,
			AreaM2:            2.56,
			TiltDegrees:       15,
			Orientation:       "sur",
		},
	}
	for _, p := range panels {
		created, err := s.CreatePanel(ctx, p)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed panel", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded panel %s: %s %s (%d x %.3fkW)\n",
			created.ID, created.Manufacturer, created.Model, created.Quantity, created.RatedPowerKW)
	}

	batteries := []types.BatterySpec{
		{
			Name:                       "Banco principal",
			Manufacturer:               "BYD",
			Model:                      "Battery-Box Premium",
			CapacityKWH:                50,
			Quantity:                   2,
			MaxDepthOfDischargePercent: 80,
			ChargeRateKW:               25,
			DischargeRateKW:            25,
			EfficiencyPercent:          92,
			Chemistry:                  "LiFePO4",
			NominalVoltage:             512,
		},
	}
	for _, b := range batteries {
		created, err := s.CreateBattery(ctx, b)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed battery", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded battery %s: %s (%d x %.0fkWh)\n",
			created.ID, created.Name, created.Quantity, created.CapacityKWH)
	}

	// Blackout schedules for the next few days, mirroring the published
	// rotation: an evening block and a midday block on alternating days.
	today := types.StartOfDay(time.Now().UTC())
	for day := 0; day < 5; day++ {
		date := today.AddDate(0, 0, day)

		var intervals []types.BlackoutInterval
		if day%2 == 0 {
			intervals = append(intervals, types.BlackoutInterval{
				Start: date.Add(18 * time.Hour),
				End:   date.Add(22 * time.Hour),
			})
		} else {
			intervals = append(intervals, types.BlackoutInterval{
				Start: date.Add(11 * time.Hour),
				End:   date.Add(13 * time.Hour),
			})
		}

		normalized, err := types.NormalizeBlackoutIntervals(date, intervals)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to normalize seed intervals", "error", err)
			os.Exit(1)
		}

		schedule := types.BlackoutSchedule{
			Date:         date,
			Intervals:    normalized,
			Province:     "La Habana",
			Municipality: "Plaza de la Revolución",
			Notes:        "Bloque de rotación programada",
		}
		saved, err := s.UpsertBlackoutByDate(ctx, schedule)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed blackout schedule", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded blackout %s: %d interval(s), first %s - %s\n",
			saved.ID, len(saved.Intervals),
			saved.Intervals[0].Start.Format("15:04"), saved.Intervals[0].End.Format("15:04"))
	}

	if err := s.Close(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded mock data successfully")
}
