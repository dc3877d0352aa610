package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// Forecast is the slim view shown next to a facility: conditions on a
// given day at the facility's coordinates.
type Forecast struct {
	Date          string  `json:"date"`
	TempMinC      float64 `json:"temp_min_c"`
	TempMaxC      float64 `json:"temp_max_c"`
	Precipitation float64 `json:"precipitation_mm"`
	WeatherCode   int     `json:"weather_code"`
}

type Service interface {
	DailyForecast(ctx context.Context, lat, lng float64, date time.Time) (*Forecast, error)
}

// openMeteo queries the Open-Meteo public forecast API. No key needed.
type openMeteo struct {
	baseURL string
	client  *http.Client
}

func NewOpenMeteo(baseURL string, timeout time.Duration) Service {
	return &openMeteo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

func (s *openMeteo) DailyForecast(ctx context.Context, lat, lng float64, date time.Time) (*Forecast, error) {
	day := date.Format("2006-01-02")

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lng))
	q.Set("daily", "temperature_2m_min,temperature_2m_max,precipitation_sum,weather_code")
	q.Set("timezone", "auto")
	q.Set("start_date", day)
	q.Set("end_date", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.ExternalError("weather service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ExternalError("weather service unreachable", fmt.Errorf("open-meteo returned %s", resp.Status))
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.ExternalError("weather service unreachable", err)
	}
	if len(body.Daily.Time) == 0 {
		return nil, domain.NotFoundError("no forecast available for that date")
	}

	f := &Forecast{Date: body.Daily.Time[0]}
	if len(body.Daily.Temperature2mMin) > 0 {
		f.TempMinC = body.Daily.Temperature2mMin[0]
	}
	if len(body.Daily.Temperature2mMax) > 0 {
		f.TempMaxC = body.Daily.Temperature2mMax[0]
	}
	if len(body.Daily.PrecipitationSum) > 0 {
		f.Precipitation = body.Daily.PrecipitationSum[0]
	}
	if len(body.Daily.WeatherCode) > 0 {
		f.WeatherCode = body.Daily.WeatherCode[0]
	}
	return f, nil
}
