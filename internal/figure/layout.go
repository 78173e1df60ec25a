package figure

// Layout is the plotly layout of a census map.
type Layout struct {
	Mapbox   Mapbox `json:"mapbox"`
	Autosize bool   `json:"autosize"`
	Margin   Margin `json:"margin"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
}

// Mapbox frames the basemap.
type Mapbox struct {
	Style  string  `json:"style"`
	Center LatLon  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Bounds Bounds  `json:"bounds"`
}

// LatLon is a map coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds restricts panning.
type Bounds struct {
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
	South float64 `json:"south"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// DefaultLayout frames Australia. The frame is fixed and not derived from the
// data: a dataset outside these bounds renders out of view.
func DefaultLayout() Layout {
	return Layout{
		Mapbox: Mapbox{
			Style:  "carto-positron",
			Center: LatLon{Lat: -25, Lon: 130},
			Zoom:   2,
			Bounds: Bounds{West: 85, East: 185, North: 0, South: -50},
		},
		Autosize: true,
		Margin:   Margin{},
		Height:   650,
		Width:    1300,
	}
}
