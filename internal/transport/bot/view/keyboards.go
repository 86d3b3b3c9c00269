package view

import (
	"tg_listing/internal/domain/entity"
)

func RailKeyboard(offerID string, rails []entity.Rail) [][]entity.Button {
	rows := make([][]entity.Button, 0, len(rails)+1)
	for _, r := range rails {
		rows = append(rows, []entity.Button{{Text: RailLabel(r), CallbackData: PayCallback(r, offerID)}})
	}
	return append(rows, []entity.Button{{Text: HelpButtonText, CallbackData: CallbackHelp}})
}

func PayKeyboard(url string) [][]entity.Button {
	return [][]entity.Button{{{Text: PayButtonText, URL: url}}}
}
