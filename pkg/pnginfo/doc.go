/*
Package pnginfo generates A1111-style generation metadata from an executed
node graph, for embedding in saved images.

# Overview

One metadata pass runs a Collector over the graph, reconciles LoRA
references from loader nodes and prompt tags, assembles an ordered record
and renders it as a parameters string:

	a cat <lora:styleA:0.8>
	Negative prompt: blurry
	Steps: 20, Sampler: DPM++ 2M Karras, CFG scale: 7.0, Seed: 123, ...

# Basic Usage

Decode the prompt graph, pick a collector and generate:

	prompt, err := graph.Parse(data)
	if err != nil {
	    log.Fatal(err)
	}

	gen := pnginfo.New(pnginfo.WithHasher(hasher))
	res, err := gen.Generate(ctx, collect.NewTrace(prompt, collect.WithHasher(hasher)))
	if err != nil {
	    log.Fatal(err)
	}
	if !res.Skipped {
	    fmt.Println(res.Parameters)
	}

With access to the execution engine, use collect.NewLive with the executed
node list and an InputResolver over the engine's output cache. Live passes
honour the field registry (defs.Default plus any extensions) and restrict
candidates to nodes upstream of the image being saved.

# Missing Data

Graph irregularities never fail a pass. Unresolved inputs and missing hashes
drop the affected fields. A pass without a step count is Skipped: its record
is empty and the caller should attach no metadata.

# Observability

Logging, metrics and tracing are opt-in through WithLogger, WithMetrics and
WithTracing. Metrics and spans use the global OpenTelemetry providers.
*/
package pnginfo
