package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// row mirrors the CBOR shape that the message repository writes.
type row struct {
	ID          string `cbor:"1,keyasint"`
	SenderID    string `cbor:"2,keyasint"`
	ReceiverID  string `cbor:"3,keyasint"`
	Content     string `cbor:"4,keyasint"`
	Lang        string `cbor:"5,keyasint"`
	Status      string `cbor:"6,keyasint"`
	SentAt      int64  `cbor:"7,keyasint"`
	DeliveredAt *int64 `cbor:"8,keyasint"`
	ReadAt      *int64 `cbor:"9,keyasint"`
	IsDeleted   bool   `cbor:"10,keyasint"`
}

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	user := flag.String("user", "", "Only show messages involving this user id")
	deleted := flag.Bool("deleted", false, "Include soft-deleted rows")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Sender", "Receiver", "Status", "Sent", "Lang", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var r row
				if err := cbor.Unmarshal(v, &r); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				if *user != "" && r.SenderID != *user && r.ReceiverID != *user {
					return nil
				}
				if r.IsDeleted && !*deleted {
					return nil
				}

				content := r.Content
				if len(content) > 40 {
					content = content[:40] + "..."
				}
				displayID := r.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					displayID,
					r.SenderID,
					r.ReceiverID,
					colorize(r.Status),
					time.Unix(0, r.SentAt).Format("15:04:05"),
					r.Lang,
					content,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%d message(s)\n\n", count)
	table.Render()
}

func colorize(status string) string {
	switch status {
	case "READ":
		return color.Green.Sprint(status)
	case "DELIVERED":
		return color.Yellow.Sprint(status)
	}
	return color.Gray.Sprint(status)
}
