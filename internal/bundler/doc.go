// Package bundler runs one chunking build end to end.
//
// A build normalizes options, loads the module graph with bounded
// parallelism, classifies edges, allocates chunks, resolves interop and
// links cross-chunk references:
//
//	b := bundler.New(logger)
//	res, err := b.Build(ctx, bundler.Request{
//	    GraphDir: "graph/",
//	    Input:    options.Input{File: raw},
//	})
//	if err != nil {
//	    return err // nothing was produced
//	}
//	fmt.Println(res.BuildID, len(res.Chunks.Chunks))
//
// Every build owns its graph, chunk set and wrapper cache. Diagnostics
// delivered during the build are recorded in the Result in delivery order
// and still forwarded to the caller's renderer.
package bundler
