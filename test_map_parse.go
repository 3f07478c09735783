package main

import (
	"fmt"

	"github.com/minimb/go-regmap/regmap"
)

func main() {
	doc, err := regmap.Parse("ModbusRegistermaps/6ba7b810-9dad-11d1-80b4-00c04fd430c8.csv")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Title: %s\n", doc.Title)
	fmt.Printf("UUID: %s\n", doc.UUID)
	fmt.Printf("Total registers: %d\n", len(doc.Descriptors))
	for _, d := range doc.Descriptors {
		fmt.Printf("  %-24s addr=%d read=%d write=%d packing=%s\n",
			d.Name, d.Address, d.ReadWords, d.WriteWords, d.Packing)
	}
}
