// Package templates holds the templ components of the offer analyzer.
// The *_templ.go files are produced from the .templ sources by templ
// generate and are not edited by hand.
package templates

//go:generate templ generate

import (
	"net/url"

	"github.com/JonMunkholm/ofertas/internal/core"
)

func sessionPath(sessionID string) string {
	return "/api/sessions/" + url.PathEscape(sessionID)
}

func processURL(sessionID string) string {
	return sessionPath(sessionID) + "/process"
}

func offersURL(sessionID string) string {
	return sessionPath(sessionID) + "/offers"
}

func exportURL(sessionID string) string {
	return sessionPath(sessionID) + "/export"
}

// offerCells lists the table cells of o in column order.
func offerCells(o core.OfferRecord) []string {
	return []string{
		o.Code,
		o.Price.String(),
		o.Laboratory,
		o.ActiveIngredient,
		o.Presentation,
		o.ListingDate,
		o.SupplyIssue,
	}
}
