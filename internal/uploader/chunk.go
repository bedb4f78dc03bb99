package uploader

// split partitions items into consecutive chunks of at most size elements.
// The last chunk may be shorter. A non-positive size falls back to the
// default concurrency width.
func split(items []Item, size int) [][]Item {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([][]Item, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}

	return chunks
}
