// Package static serves the files of the browser bundle and the public
// directory.
//
// A Handler reads from a Source, either a directory on disk or an S3
// bucket, and falls through to the next handler on a miss so the render
// fallback can answer:
//
//	files := static.New(static.NewDirSource("dist"),
//	    static.WithCacheControl(static.CacheProduction))
//	r.Use(files.Middleware)
//
//	bucket := static.NewS3Source(static.NewS3Client(static.S3ClientOptions{
//	    Region: "eu-west-1",
//	}), "my-assets", "v42")
package static
