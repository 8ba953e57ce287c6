package ai

import (
	"fmt"
	"strings"
)

const basePrompt = `Product-style photo of a second-hand item offered for trade on a community barter board.

Hard rules (must follow):

* Show a single item, centered, fully in frame.
* Photorealistic, natural soft daylight, minimal shadows.
* No people, no hands, no text, no watermark, no price tags.`

var stylePrompts = map[string]string{
	"fashion-look": `Style target (fashion-look):

* Clean white seamless background, soft daylight, minimal natural shadows directly under the item.
* Folded or neatly laid out, fabric texture and color true to life.`,
	"tech-gadget": `Style target (tech-gadget):

* Flatlay on a light wooden desk surface, subtle natural grain, modern airy aesthetic.
* Neutral white balance, gentle shadowing, no cables or clutter.`,
	"outdoor-gear": `Style target (outdoor-gear):

* On rustic wood with an outdoor feel, still clean and intentional.
* Warm daylight, crisp focus, natural shadowing.`,
}

// categoryStyles maps category slugs onto a photo style; others use fashion-look.
var categoryStyles = map[string]string{
	"electronics":      "tech-gadget",
	"tools":            "tech-gadget",
	"books":            "tech-gadget",
	"collectibles":     "tech-gadget",
	"toys-and-games":   "tech-gadget",
	"sports-equipment": "outdoor-gear",
	"vehicles":         "outdoor-gear",
	"furniture":        "outdoor-gear",
	"home-decor":       "outdoor-gear",
}

// StyleFor returns the photo style for a category slug.
func StyleFor(categorySlug string) string {
	if style, ok := categoryStyles[strings.ToLower(strings.TrimSpace(categorySlug))]; ok {
		return style
	}
	return "fashion-look"
}

// BuildListingPrompt describes the photo for a listing of item in the given
// category.
func BuildListingPrompt(item, categorySlug string) string {
	parts := []string{
		basePrompt,
		stylePrompts[StyleFor(categorySlug)],
		fmt.Sprintf("Item: %s", strings.TrimSpace(item)),
	}
	return strings.Join(parts, "\n\n")
}
