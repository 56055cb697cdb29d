package main

import (
	"chat-timeline/domain/chat"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// render prints the converged timeline, one table per calendar day.
func render(out io.Writer, timeline chat.Timeline) {
	fmt.Fprintln(out)
	for _, bucket := range timeline {
		header := color.Bold.Sprint(bucket.Label)
		if bucket.IsToday {
			header += color.Yellow.Sprint(" (today)")
		}
		fmt.Fprintln(out, header)

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Time", "Sender", "Type", "Content"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		for _, message := range bucket.Messages {
			table.Append([]string{
				message.CreatedAt.Format("15:04:05"),
				message.SenderID,
				string(message.Type),
				message.Content,
			})
		}
		table.Render()
	}
}
