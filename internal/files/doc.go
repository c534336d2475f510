// Package files locates input tables and writes output files.
//
// Discovery finds expedition and peak tables in the input directory. A
// configured name such as exped.csv also matches exped.xlsx, so either
// export of the Himalayan Database can be dropped in.
//
// Manager writes outputs through a temporary file and a rename, so the HTTP
// server and other readers never see a half-written timeline.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.InputDir)
//	table, err := discovery.LocateTable("exped.csv")
//
//	manager := files.NewManager(logger)
//	err = manager.WriteAtomic(paths.TimelineCSV, func(w io.Writer) error {
//	    return exporter.WriteTimelineCSV(w, entries)
//	})
package files
