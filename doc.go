// Package pdfrender renders HTML, URLs and Markdown to PDF in headless
// Chrome and combines the results into single documents.
//
// # Quick Start
//
// Launch one browser per process, build an orchestrator on top of it and
// wrap it in a Service:
//
//	browser, err := pdfrender.LaunchBrowser(pdfrender.BrowserOptions{Headless: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer browser.Close()
//
//	orch := pdfrender.NewOrchestrator(pdfrender.NewRodTabRenderer(browser))
//	orch.Start(ctx)
//	defer orch.Close()
//
//	svc := pdfrender.NewService(orch, pdfrender.WithVersioner(browser))
//	resp, err := svc.Render(ctx, &pdfrender.Request{
//	    Combined: &pdfrender.CombinedRequest{
//	        Jobs: []pdfrender.Job{
//	            {Source: pdfrender.HTMLSource{HTML: "<h1>Cover</h1>"}},
//	            {Source: pdfrender.URLSource{URL: "https://example.com"}},
//	        },
//	    },
//	})
//
// # Rendering Pipeline
//
// A request flows through these stages:
//
//  1. Print options are resolved per job (explicit, then paper format, then defaults)
//  2. The orchestrator queues the batch and opens one browser tab per job
//  3. Results are collected, reordered by job index and delivered
//  4. Combined requests merge the PDFs into one document with one bookmark per job
//  5. Optional metadata is stamped and the output is returned or uploaded
//
// # Concurrency
//
// Batches wait in a bounded queue; Submit blocks while it is full. Inside a
// batch, concurrent tabs are capped by WithMaxTabs (default derived from
// GOMAXPROCS) and each job runs under WithJobTimeout. Results always come
// back in submission order, one per job.
//
// # Error Handling
//
// Failures of a single job are reported as *JobError in that job's Result
// and never fail the rest of the batch. Sentinel errors can be checked with
// errors.Is:
//
//	if errors.Is(res.Err, pdfrender.ErrJobTimeout) {
//	    // retry with a longer timeout
//	}
//
// Structural failures (invalid request, closed orchestrator) are returned
// by Service.Render itself.
package pdfrender
