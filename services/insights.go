package services

import (
	"fmt"
	"sort"
	"strings"

	"apartment-estimator/features"
	"apartment-estimator/models"
	"apartment-estimator/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises the corpus. Price-per-area statistics only use rows
// whose price and area parse to positive numbers.
func (s *InsightService) Generate(listings []*models.ListingRecord) *models.CorpusReport {
	report := &models.CorpusReport{
		ByType: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	type agg struct {
		sum   float64
		count int
	}
	byMunicipality := make(map[string]*agg)
	tables := features.DefaultScoreTables()

	var total, totalArea float64
	for _, l := range listings {
		report.ByType[tables.Type.Canonical(l.Type)]++

		price, err := features.ParsePrice(l.Price)
		if err != nil || price <= 0 {
			continue
		}
		area, err := features.ParseArea(l.AreaM2)
		if err != nil || area <= 0 {
			continue
		}
		ppa := price / area

		if report.PricedListings == 0 || ppa < report.MinPrice {
			report.MinPrice = ppa
		}
		if report.PricedListings == 0 || ppa > report.MaxPrice {
			report.MaxPrice = ppa
			report.MostExpensive = l
			report.MostExpensivePA = round2(ppa)
		}
		report.PricedListings++
		total += ppa
		totalArea += area

		a, ok := byMunicipality[l.Municipality]
		if !ok {
			a = &agg{}
			byMunicipality[l.Municipality] = a
		}
		a.sum += ppa
		a.count++
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(total / float64(report.PricedListings))
		report.AverageArea = round2(totalArea / float64(report.PricedListings))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	for m, a := range byMunicipality {
		report.ByMunicipality = append(report.ByMunicipality, models.MunicipalityStat{
			Municipality: m,
			Listings:     a.count,
			AvgPrice:     round2(a.sum / float64(a.count)),
		})
	}
	sort.Slice(report.ByMunicipality, func(i, j int) bool {
		a, b := report.ByMunicipality[i], report.ByMunicipality[j]
		if a.AvgPrice != b.AvgPrice {
			return a.AvgPrice > b.AvgPrice
		}
		return a.Municipality < b.Municipality
	})

	s.logger.Debug("[insights] %d of %d listings carry a usable price", report.PricedListings, report.TotalListings)
	return report
}

// Print renders the corpus report and, when eval is non-nil, the model
// evaluation.
func (s *InsightService) Print(r *models.CorpusReport, eval *models.EvaluationReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 APARTMENT CORPUS INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings         : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Listings with price    : \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics (per m²)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m%.2f €\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m%.2f €\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m%.2f €\033[0m\n", r.MaxPrice)
		fmt.Printf("  Average area  : \033[1m%.2f m²\033[0m\n", r.AverageArea)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		if r.MostExpensive.Title != "" {
			fmt.Printf("  %s\n", truncate(r.MostExpensive.Title, 50))
		}
		fmt.Printf("  Municipality : %s\n", r.MostExpensive.Municipality)
		fmt.Printf("  Price        : \033[1;31m%.2f €/m²\033[0m\n", r.MostExpensivePA)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Average Price by Municipality\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByMunicipality) == 0 {
		fmt.Printf("  No municipality data\n")
	} else {
		for _, m := range r.ByMunicipality {
			fmt.Printf("  %-28s %10.2f €/m² (%d)\n", truncate(m.Municipality, 26), m.AvgPrice, m.Listings)
		}
	}

	if eval != nil {
		fmt.Println()
		fmt.Printf("\033[1;33m  Model Evaluation (%s)\033[0m\n", eval.Strategy)
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Run           : %s\n", eval.RunID)
		fmt.Printf("  Train / test  : %d / %d rows (%d dropped)\n", eval.TrainRows, eval.TestRows, eval.DroppedRows)
		fmt.Printf("  Features      : %d\n", eval.Features)
		fmt.Printf("  RMSE          : \033[1;32m%.2f\033[0m\n", eval.RMSE)
		fmt.Printf("  R²            : \033[1;32m%.4f\033[0m\n", eval.R2)
		fmt.Printf("  Average price : %.2f €/m²\n", eval.AveragePrice)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
