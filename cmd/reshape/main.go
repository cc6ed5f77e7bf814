// Command reshape runs the upload reshaper on local files.
//
//	reshape overwrite --reference base_file_a.csv -o 双葉店.csv upload.xlsx
//	reshape conform --reference base_file_a.csv --mapping rename.yaml -o out.csv upload.csv
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
