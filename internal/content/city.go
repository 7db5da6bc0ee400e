package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// City is one city guide as stored in data/cities/<slug>[-<lang>].json.
type City struct {
	Slug           string          `json:"slug" validate:"required,slug"`
	Name           string          `json:"name" validate:"required"`
	Country        string          `json:"country" validate:"required"`
	Description    Description     `json:"description" validate:"required"`
	Weather        *Weather        `json:"weather,omitempty"`
	Culture        *Culture        `json:"culture,omitempty"`
	Logistics      *Logistics      `json:"logistics,omitempty"`
	Places         []Place         `json:"places" validate:"dive"`
	AffiliateLinks []AffiliateLink `json:"affiliate_links,omitempty" validate:"dive"`

	// Language is the locale actually served, which differs from the requested
	// one when the English file was used as a fallback.
	Language string `json:"language"`
}

type Place struct {
	ID             string          `json:"id" validate:"required"`
	Slug           string          `json:"slug" validate:"required,slug"`
	Name           string          `json:"name" validate:"required"`
	Category       string          `json:"category" validate:"required"`
	Description    Description     `json:"description"`
	Address        string          `json:"address,omitempty"`
	Coordinates    *Coordinates    `json:"coordinates,omitempty"`
	PriceLevel     int             `json:"price_level" validate:"min=0,max=4"`
	AffiliateLinks []AffiliateLink `json:"affiliate_links,omitempty" validate:"dive"`
}

type Coordinates struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type AffiliateLink struct {
	Provider string `json:"provider" validate:"required"`
	Label    string `json:"label" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

type Weather struct {
	Climate    string         `json:"climate"`
	BestMonths []string       `json:"best_months,omitempty"`
	Months     []MonthWeather `json:"months,omitempty" validate:"dive"`
}

type MonthWeather struct {
	Month    int     `json:"month" validate:"min=1,max=12"`
	HighC    float64 `json:"high_c"`
	LowC     float64 `json:"low_c" validate:"ltefield=HighC"`
	RainDays int     `json:"rain_days" validate:"min=0,max=31"`
}

type Culture struct {
	Tips      []string `json:"tips,omitempty" validate:"dive,required"`
	Etiquette []string `json:"etiquette,omitempty" validate:"dive,required"`
}

type Logistics struct {
	Currency  string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Languages []string `json:"languages,omitempty"`
	Transport []string `json:"transport,omitempty"`
	Emergency string   `json:"emergency,omitempty"`
}

// FindPlace returns the place with the given slug.
func (c *City) FindPlace(slug string) (*Place, bool) {
	for i := range c.Places {
		if c.Places[i].Slug == slug {
			return &c.Places[i], true
		}
	}
	return nil, false
}

type DescriptionKind int

const (
	DescriptionText DescriptionKind = iota + 1
	DescriptionRich
)

// Description is either plain text or a short/long pair. Content files use both
// shapes; anything else is rejected when the file is decoded.
type Description struct {
	Kind  DescriptionKind
	Text  string
	Short string
	Long  string
}

func TextDescription(s string) Description {
	return Description{Kind: DescriptionText, Text: s}
}

func RichDescription(short, long string) Description {
	return Description{Kind: DescriptionRich, Short: short, Long: long}
}

// Summary is the one-paragraph form used in listings and meta tags.
func (d Description) Summary() string {
	if d.Kind == DescriptionRich {
		return d.Short
	}
	return d.Text
}

func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Description{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = TextDescription(s)
		return nil
	case '{':
		var rich struct {
			Short string `json:"short"`
			Long  string `json:"long"`
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rich); err != nil {
			return fmt.Errorf("description: %w", err)
		}
		if rich.Short == "" {
			return errors.New("description: object form requires \"short\"")
		}
		*d = RichDescription(rich.Short, rich.Long)
		return nil
	default:
		return fmt.Errorf("description: expected string or object, got %s", data)
	}
}

func (d Description) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DescriptionText:
		return json.Marshal(d.Text)
	case DescriptionRich:
		return json.Marshal(struct {
			Short string `json:"short"`
			Long  string `json:"long,omitempty"`
		}{d.Short, d.Long})
	default:
		return []byte("null"), nil
	}
}
