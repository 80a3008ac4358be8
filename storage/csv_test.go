package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-estimator/models"
)

const corpusHeader = "City,Municipality,Price,Area_m2,Price_per_m2,Rooms,Floor,Type,Condition,Heating,Parking_garage,Parking_outdoor,URL\n"

func TestParseCSVMapsColumnsByName(t *testing.T) {
	src := "\ufeff" + corpusHeader +
		`Beograd,Vračar,"150.000 €",75,2000,3,III/5,Novogradnja,Lux,CG,0,1,https://x/1` + "\n" +
		`Beograd,Zvezdara,90.000,60,1500,2,PR/4,Stara gradnja,Održavano,TA,1,1,` + "\n"

	listings, skipped, err := ParseCSV(strings.NewReader(src), CorpusColumns)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "Vračar", first.Municipality)
	assert.Equal(t, "150.000 €", first.Price)
	assert.Equal(t, "75", first.AreaM2)
	assert.Equal(t, "III/5", first.Floor)
	assert.Equal(t, "Lux", first.Condition)
	assert.Equal(t, "0", first.ParkingGarage)
	assert.Equal(t, "https://x/1", first.URL)

	assert.Equal(t, "", listings[1].URL)
	assert.Equal(t, "PR/4", listings[1].Floor)
}

func TestParseCSVSkipsShortRows(t *testing.T) {
	src := corpusHeader +
		"Beograd,Vračar,150000,75,2000,3,III/5,Novogradnja,Lux,CG,0,1,u1\n" +
		"Beograd,Vračar,150000\n" +
		"Beograd,Zemun,99000,66,1500,2,II/3,Novogradnja,Lux,CG,1,1,u2\n"

	listings, skipped, err := ParseCSV(strings.NewReader(src), CorpusColumns)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, listings, 2)
	assert.Equal(t, "Zemun", listings[1].Municipality)
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("Municipality,Price\nVračar,1\n"), CorpusColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Area_m2")
}

func TestParseCSVPriceOptionalForListings(t *testing.T) {
	src := "Municipality,Area_m2,Rooms,Floor,Type,Condition,Heating,Parking_garage,Parking_outdoor\n" +
		"Zemun,55,2,II/4,Novogradnja,Lux,CG,1,0\n"

	_, _, err := ParseCSV(strings.NewReader(src), CorpusColumns)
	require.Error(t, err)

	listings, _, err := ParseCSV(strings.NewReader(src), ListingColumns)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "", listings[0].Price)
	assert.Equal(t, "55", listings[0].AreaM2)
}

func TestCSVReaderMissingFile(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "nope.csv"), nil).ReadRaw()
	assert.Error(t, err)
}

func TestCSVReaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	content := corpusHeader + "Beograd,Novi Beograd,200000,80,2500,3,V/8,Novogradnja,Renovirano,CG,0,0,u1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	listings, err := NewCSVReader(path, nil).ReadRaw()
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Novi Beograd", listings[0].Municipality)
}

func TestCSVWriterWritesEstimatesAndErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "estimates.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	rec := &models.ListingRecord{URL: "u1", Municipality: "Vračar", AreaM2: "50", Rooms: 2, Floor: "II/4"}
	rows := []EstimateRow{
		{
			Listing: rec,
			Estimate: models.Estimate{
				PricePerArea: decimal.RequireFromString("2500.5"),
				Total:        decimal.RequireFromString("125025"),
				Currency:     "EUR",
				Strategy:     "linear",
			},
		},
		{Listing: rec, Err: errors.New("bad floor")},
	}
	require.NoError(t, w.WriteEstimates(rows))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	all, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, all, 3)
	assert.Equal(t, "price_per_m2", all[0][5])
	assert.Equal(t, "2500.50", all[1][5])
	assert.Equal(t, "125025.00", all[1][6])
	assert.Equal(t, "", all[1][9])
	assert.Equal(t, "bad floor", all[2][9])
	assert.Equal(t, "", all[2][5])
}
