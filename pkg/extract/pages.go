package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

// ClubDetails are the fields of a club page; any of them may be nil
type ClubDetails struct {
	Locality   *string
	Delegation *string
	Province   *string
}

// ParseClub reads the club page info table
func ParseClub(doc *goquery.Document) ClubDetails {
	return ClubDetails{
		Locality:   normalize.FieldValue(labelledCell(doc, "Localitat").Text()),
		Delegation: delegationValue(labelledCell(doc, "Delegació").Text()),
		Province:   normalize.FieldValue(labelledCell(doc, "Provincia").Text()),
	}
}

func delegationValue(cell string) *string {
	v := normalize.FieldValue(cell)
	if v == nil {
		return nil
	}
	return normalize.Delegation(*v)
}

// labelledCell returns the td whose span contains label
func labelledCell(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return td.ChildrenFiltered("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), label)
		}).Length() > 0
	}).First()
}

// VenueDetails are the fields of a /camp/ page
type VenueDetails struct {
	Name     *string
	Terrain  *string
	Address  *string
	Locality *string
	Province *string
}

// ParseVenue reads a venue page. Values sit in the td after the labelled one.
func ParseVenue(doc *goquery.Document) VenueDetails {
	return VenueDetails{
		Name:     nonEmpty(doc.Find("div.mt-20 p.bigtitle").First().Text()),
		Terrain:  nonEmpty(ownText(labelledCell(doc, "Superfície de joc").NextFiltered("td"))),
		Address:  nonEmpty(ownText(labelledCell(doc, "Direcció").NextFiltered("td"))),
		Locality: nonEmpty(ownText(labelledCell(doc, "Localitat").NextFiltered("td"))),
		Province: nonEmpty(ownText(labelledCell(doc, "Província").NextFiltered("td"))),
	}
}

func nonEmpty(s string) *string {
	s = normalize.CollapseSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
