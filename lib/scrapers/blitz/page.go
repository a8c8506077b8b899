package blitz

import (
	"strings"

	"blitzwatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseStatusPage extracts a GameSnapshot from the html of a game page.
//
// Only a missing lobby title is an error. A page without a status section
// yields a snapshot with HasStatus set to false and nothing else filled in.
func ParseStatusPage(page string) (GameSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return GameSnapshot{}, &ParseError{Reason: "read html", Err: err}
	}

	title := doc.Find("h1").First()
	if title.Length() == 0 {
		return GameSnapshot{}, &ParseError{Reason: "missing lobby title"}
	}

	snapshot := GameSnapshot{
		LobbyName: htmlutil.Text(title),
		Players:   []PlayerStatus{},
		Info:      map[string]string{},
	}

	statusSection := doc.Find("div#status").First()
	if statusSection.Length() == 0 {
		return snapshot, nil
	}
	snapshot.HasStatus = true

	statusSection.Find("div.pane.status").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() != 2 {
			return
		}
		key := strings.ToLower(htmlutil.Text(cols.Eq(0)))
		key = strings.ReplaceAll(key, " ", "_")
		snapshot.Info[key] = htmlutil.Text(cols.Eq(1))
	})

	doc.Find("div.players").First().Find("table.striped-table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if !htmlutil.HasClassContaining(row, "disciple") {
				return
			}
			player, ok := parsePlayerRow(row)
			if ok {
				snapshot.Players = append(snapshot.Players, player)
			}
		})
	})

	return snapshot, nil
}

func parsePlayerRow(row *goquery.Selection) (PlayerStatus, bool) {
	nationCell := row.Find("td.nation-name.wide-column").First()
	if nationCell.Length() == 0 {
		return PlayerStatus{}, false
	}

	name := htmlutil.Text(nationCell.Find("b").First()) +
		htmlutil.Text(nationCell.Find("span.epithet").First())

	return PlayerStatus{
		NationName: name,
		Status:     htmlutil.Text(row.Find("td").Last()),
	}, true
}
