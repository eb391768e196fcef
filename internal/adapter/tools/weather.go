package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"ragchat/internal/domain"
)

var WeatherSpec = domain.ToolSpec{
	Name:        "get_current_weather",
	Description: "Get the current weather in a given location",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city and state, e.g. San Francisco, CA",
			},
			"unit": map[string]any{
				"type": "string",
				"enum": []string{"celsius", "fahrenheit"},
			},
		},
		"required": []string{"location"},
	},
}

type weatherArgs struct {
	Location string `json:"location"`
	Unit     string `json:"unit"`
}

type Weather struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// CurrentWeather returns canned weather for any location.
func CurrentWeather(_ context.Context, arguments string) (string, error) {
	var args weatherArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("%w: weather arguments: %v", domain.ErrInvalidParameter, err)
	}
	if args.Location == "" {
		return "", fmt.Errorf("%w: location is required", domain.ErrInvalidParameter)
	}

	w := Weather{
		Location:    args.Location,
		Temperature: "22",
		Unit:        "celsius",
		Description: "sunny",
	}
	if args.Unit == "fahrenheit" {
		w.Temperature = "72"
		w.Unit = "fahrenheit"
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
