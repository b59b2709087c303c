package workflow

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/catalog"
	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

const categoryButtonsPerRow = 2

// prompt renders the message that opens the state's current stage.
func (e *Engine) prompt(st *state, out *Response) {
	msgs := &e.catalog.Messages
	fc := e.catalog.Flow(st.flow)
	d := st.payload.Listing

	switch st.stage {
	case StageCategory:
		out.reply(fc.Emoji+" "+fc.Label+"\n\n"+fc.CategoryPrompt, e.categoryKeyboard(st.flow)...)
	case StageAttributes:
		out.reply(e.attributePrompt(st))
	case StagePhoto:
		lines := []string{msgs.PhotoHeader, fc.PhotoPrompt, msgs.PhotoInstructions}
		if n := len(d.Photos); n > 0 {
			lines = append(lines, fmt.Sprintf(msgs.PhotoProgress, n, models.MaxPhotos))
		}
		out.reply(strings.Join(lines, "\n\n"))
	case StageLocation:
		out.reply(fc.Emoji + " " + msgs.LocationHeader + "\n\n" + fc.LocationPrompt)
	case StageSecrets:
		out.reply(e.secretsPrompt(st.flow, d))
	case StageConfirm:
		out.reply(e.summary(st.flow, d), e.confirmKeyboard(st.flow)...)
	}
}

func (e *Engine) attributePrompt(st *state) string {
	msgs := &e.catalog.Messages
	d := st.payload.Listing

	field, ok := e.catalog.Field(d.Category, st.payload.Meta.CurrentAttributeKey)
	if !ok {
		return msgs.ChooseCategoryFirst
	}

	var lines []string
	if d.AnswerCount() == 0 {
		fc := e.catalog.Flow(st.flow)
		lines = append(lines, fc.Emoji+" "+msgs.AttributesHeader, fc.AttributesPrompt)
	}
	lines = append(lines, field.Question.For(st.flow))
	if hint := field.Hint.For(st.flow); hint != "" {
		lines = append(lines, msgs.HintPrefix+hint)
	}
	if !field.Required {
		lines = append(lines, msgs.SkipNote)
	}
	return strings.Join(lines, "\n\n")
}

func (e *Engine) secretsPrompt(flow models.Flow, d models.Draft) string {
	msgs := &e.catalog.Messages
	fc := e.catalog.Flow(flow)

	lines := []string{
		fc.Emoji + " " + fmt.Sprintf(msgs.SecretsHeader, strings.ToLower(fc.SecretsLabel)),
		fc.SecretsPrompt,
	}
	if len(d.PendingSecrets) > 0 {
		hints := []string{msgs.SecretsHints}
		for _, s := range d.PendingSecrets {
			label := s.Key
			if f, ok := e.catalog.Field(d.Category, s.Key); ok && f.Label != "" {
				label = f.Label
			}
			hints = append(hints, "• "+label+": "+s.Value)
		}
		lines = append(lines, strings.Join(hints, "\n"))
	}
	lines = append(lines, msgs.SecretsFooter)
	return strings.Join(lines, "\n\n")
}

// summary renders the draft for the confirmation stage.
func (e *Engine) summary(flow models.Flow, d models.Draft) string {
	msgs := &e.catalog.Messages
	fc := e.catalog.Flow(flow)

	category := msgs.SummaryNone
	if cat, err := e.catalog.Lookup(d.Category); err == nil {
		category = cat.Label()
	}

	lines := []string{fmt.Sprintf(msgs.SummaryCategory, category)}

	if attrs := e.catalog.AttributeLines(d); len(attrs) > 0 {
		lines = append(lines, msgs.SummaryAttributes+"\n"+bullets(attrs))
	} else {
		lines = append(lines, msgs.SummaryAttributes+" "+msgs.SummaryNone)
	}

	lines = append(lines, fmt.Sprintf(msgs.SummaryPhotos, len(d.Photos)))

	if d.Location != nil {
		coords := fmt.Sprintf(msgs.SummaryCoordinates, d.Location.Lat, d.Location.Lng)
		if d.Location.Precision == models.PrecisionArea {
			coords += msgs.SummaryArea
		}
		lines = append(lines, coords)
	} else {
		lines = append(lines, msgs.SummaryNoCoords)
	}

	note := msgs.SummaryNone
	if d.LocationNote != "" {
		note = d.LocationNote
	}
	lines = append(lines, fmt.Sprintf(msgs.SummaryPlace, note))

	if len(d.Secrets) > 0 {
		lines = append(lines, fmt.Sprintf("%s (%d):\n%s", fc.SecretsLabel, len(d.Secrets), bullets(d.Secrets)))
	} else {
		lines = append(lines, fc.SecretsLabel+": "+msgs.SummaryNone)
	}

	return fc.Emoji + " " + msgs.ConfirmHeader + "\n\n" +
		fc.SummaryTitle + "\n\n" +
		strings.Join(lines, "\n") + "\n\n" +
		fc.ConfirmPrompt
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = " - " + it
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) categoryKeyboard(flow models.Flow) [][]Button {
	var rows [][]Button
	var row []Button
	for _, cat := range e.catalog.Categories {
		row = append(row, Button{
			Label:    cat.Label(),
			Callback: Callback{Flow: flow, Action: ActionCategory, Value: cat.ID}.String(),
		})
		if len(row) == categoryButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []Button{e.cancelButton(flow)})
}

func (e *Engine) confirmKeyboard(flow models.Flow) [][]Button {
	msgs := &e.catalog.Messages
	return [][]Button{
		{{Label: msgs.PublishButton, Callback: Callback{Flow: flow, Action: ActionConfirm, Value: ConfirmPublish}.String()}},
		{
			{Label: msgs.EditButton, Callback: Callback{Flow: flow, Action: ActionConfirm, Value: ConfirmEdit}.String()},
			e.cancelButton(flow),
		},
		{{Label: msgs.MenuButton, Callback: Callback{Flow: flow, Action: ActionMenu}.String()}},
	}
}

func (e *Engine) cancelButton(flow models.Flow) Button {
	return Button{
		Label:    e.catalog.Messages.CancelButton,
		Callback: Callback{Flow: flow, Action: ActionCancel}.String(),
	}
}

// mainMenu replies with text and the scenario buttons. The map front-end is
// a link button when it is served over https and a text line otherwise.
func (e *Engine) mainMenu(out *Response, text string) {
	msgs := &e.catalog.Messages

	var row []Button
	for _, f := range []models.Flow{models.FlowLost, models.FlowFound} {
		row = append(row, flowButton(e.catalog, f))
	}
	keyboard := [][]Button{row}

	front := strings.TrimSpace(e.opts.FrontURL)
	if strings.HasPrefix(front, "https://") {
		keyboard = append(keyboard, []Button{{Label: msgs.MapButton, URL: front}})
	}
	out.reply(text, keyboard...)

	if front != "" && !strings.HasPrefix(front, "https://") {
		out.reply(fmt.Sprintf(msgs.MapLink, front))
	}
}

func flowButton(cat *catalog.Catalog, f models.Flow) Button {
	fc := cat.Flow(f)
	return Button{
		Label:    fc.Emoji + " " + fc.Label,
		Callback: Callback{Flow: f, Action: ActionStart}.String(),
	}
}
