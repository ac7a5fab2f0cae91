// Package illustration generates one image per slide for markdown slideshows.
// Each slide's title and visible text become an image prompt in the configured
// style; images for unchanged prompts are reused from the asset cache.
package illustration
