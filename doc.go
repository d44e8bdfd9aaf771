// Package tagcat classifies ML project descriptions into topic tags using
// fine-tuned transformer checkpoints exported to ONNX.
//
// # Quick Start
//
//	clf, err := tagcat.New("model.onnx", "vocab.json",
//	    []string{"computer-vision", "mlops", "natural-language-processing", "other"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer clf.Close()
//
//	pred, err := clf.Predict(ctx, "Fine-tuning BERT for question answering")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (%.2f)\n", pred.Label, pred.Confidence)
//
// # Thread Safety
//
// Classifier is safe for concurrent use. It manages an internal pool of ONNX
// sessions, configurable via WithPoolSize.
//
// # Evaluation
//
// The eval package computes overall, per-class and per-slice metrics from
// predicted and ground-truth label slices; see eval.NewReport.
package tagcat
