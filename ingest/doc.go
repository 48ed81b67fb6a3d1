// Package ingest builds datasets from harvested repository metadata.
//
// NeuroVaultCSV reads the image-metadata table exported from a NeuroVault
// harvest and keeps the images usable for image-based meta-analysis:
//
//	f, _ := os.Open("neurovault_papers_metadata.csv")
//	defer f.Close()
//
//	ds, report, err := ingest.NeuroVaultCSV(f, ingest.WithImagePrefix("neurovault"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(report.Kept, "of", report.Rows, "images kept")
//
// Each kept image becomes one study whose ID is the image ID zero-padded to
// six digits. Downloading and resampling the images is out of scope; image
// paths are blob names derived from the table's file URLs.
package ingest
