// Package generation defines the boundary between the job processor and the
// vision language models that describe images. It owns the prompt, the
// alt-text length limit and the error vocabulary shared by every backend.
package generation
