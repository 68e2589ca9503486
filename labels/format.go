package labels

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NoLabelsMessage is shown when the service found nothing to label.
	NoLabelsMessage = "No labels detected for this image."

	serviceErrorPrefix   = "Error analyzing image: "
	transportErrorPrefix = "An error occurred with the Google Vision API: "
)

var (
	hundred     = decimal.NewFromInt(100)
	singleLiner = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Policy is a way of rendering a label list. Detailed and Compact are the two the
// front ends use.
type Policy struct {
	Name string
	// Precision is the number of decimals in the percentage.
	Precision int32
	// Header is written once before the lines.
	Header string
	// Bullet prefixes every line of the display block.
	Bullet string
	// Item formats one label from its description and rendered percentage.
	Item string
	// Separator joins lines of the display block.
	Separator string
	// Trailer follows every line of the display block.
	Trailer string
}

var (
	// Detailed is the desktop rendering:
	//
	//	Google Vision API Results:
	//	--------------------------
	//	- Plant (98.70% score)
	Detailed = Policy{
		Name:      "detailed",
		Precision: 2,
		Header:    "Google Vision API Results:\n--------------------------\n",
		Bullet:    "- ",
		Item:      "%s (%s%% score)",
		Separator: "\n",
	}

	// Compact is the web rendering, "Plant (99%)".
	Compact = Policy{
		Name:      "compact",
		Precision: 0,
		Header:    "Detected Labels:\n\n",
		Bullet:    "  • ",
		Item:      "%s (%s%%)",
		Trailer:   "\n",
	}
)

// Percent renders score×100 with the policy precision. The score is taken at its
// shortest decimal form and rounded half to even, so 0.125 renders as 12 and 0.375 as
// 38 with no decimals. NaN and infinities are rendered as is.
func (p Policy) Percent(score float32) string {
	f := float64(score)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', int(p.Precision), 32)
	}
	return decimal.NewFromFloat32(score).Mul(hundred).StringFixedBank(p.Precision)
}

// Format renders a single label.
func (p Policy) Format(l Label) string {
	return fmt.Sprintf(p.Item, l.Description, p.Percent(l.Score))
}

// Items renders every label, in order.
func (p Policy) Items(labels []Label) []string {
	items := make([]string, 0, len(labels))
	for _, l := range labels {
		items = append(items, p.Format(l))
	}
	return items
}

// Display renders the outcome of a request as a text block. It never fails: errors
// become a one-line message carrying the error's message.
func (p Policy) Display(labels []Label, err error) string {
	if err != nil {
		return ErrorText(err)
	}
	if len(labels) == 0 {
		return NoLabelsMessage
	}

	var b strings.Builder
	b.WriteString(p.Header)
	for i, item := range p.Items(labels) {
		if i > 0 {
			b.WriteString(p.Separator)
		}
		b.WriteString(p.Bullet)
		b.WriteString(item)
		b.WriteString(p.Trailer)
	}
	return b.String()
}

// ErrorText is the single-line message shown for a failed request.
func ErrorText(err error) string {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serviceErrorPrefix + singleLiner.Replace(serr.Message)
	}
	return transportErrorPrefix + singleLiner.Replace(Message(err))
}
