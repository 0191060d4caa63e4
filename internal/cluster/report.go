// Package cluster reads the cluster_report.csv bookkeeping file that
// accompanies IsoSeq runs, mapping cluster IDs to their member reads.
package cluster

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// List holds the reads of every cluster, grouped by full-length class and
// originating cell.
type List struct {
	clusters map[string]map[string]map[int][]string
	cells    map[string]int // long cell name -> assigned number
	numReads int
}

// Cell pairs a cell's assigned number with its long name.
type Cell struct {
	No   int
	Name string
}

// Group is the reads of one (full-length class, cell) bucket of a cluster.
type Group struct {
	FL    string // "FL" or "nonFL"
	Cell  int
	Reads []string
}

// ReadFile loads a cluster report. Old-style files are whitespace
// separated; new-style files carry a "cluster_id,read_id,read_type"
// header and are comma separated.
func ReadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cluster report: %w", err)
	}
	defer f.Close()

	l := &List{
		clusters: make(map[string]map[string]map[int][]string),
		cells:    make(map[string]int),
	}

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty cluster report %s", path)
	}
	header := strings.TrimSpace(scanner.Text())
	newStyle := header == "cluster_id,read_id,read_type"

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var fields []string
		if newStyle {
			fields = strings.Split(line, ",")
		} else {
			fields = strings.Fields(line)
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("mis-formed cluster report line: %s", line)
		}
		clusterID, readName, fl := fields[0], fields[1], fields[2]

		parts := strings.Split(readName, "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("mis-formed read name: %s", readName)
		}
		cell, zmw, coords := parts[0], parts[1], parts[2]
		coords = strings.TrimSuffix(coords, "_CCS")
		shortName := zmw + "|" + coords

		cellNo, ok := l.cells[cell]
		if !ok {
			cellNo = len(l.cells) + 1
			l.cells[cell] = cellNo
		}

		byFL, ok := l.clusters[clusterID]
		if !ok {
			byFL = make(map[string]map[int][]string)
			l.clusters[clusterID] = byFL
		}
		byCell, ok := byFL[fl]
		if !ok {
			byCell = make(map[int][]string)
			byFL[fl] = byCell
		}
		byCell[cellNo] = append(byCell[cellNo], shortName)
		l.numReads++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cluster report: %w", err)
	}

	return l, nil
}

// NumReads returns the total number of reads in the report.
func (l *List) NumReads() int {
	return l.numReads
}

// NumClusters returns the number of distinct clusters.
func (l *List) NumClusters() int {
	return len(l.clusters)
}

// Cells returns the cells in assignment order.
func (l *List) Cells() []Cell {
	cells := make([]Cell, 0, len(l.cells))
	for name, no := range l.cells {
		cells = append(cells, Cell{No: no, Name: name})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].No < cells[j].No })
	return cells
}

// Reads returns the read groups of a cluster, full-length classes and
// cells in sorted order. Returns nil for an unknown cluster.
func (l *List) Reads(clusterID string) []Group {
	byFL, ok := l.clusters[clusterID]
	if !ok {
		return nil
	}

	fls := make([]string, 0, len(byFL))
	for fl := range byFL {
		fls = append(fls, fl)
	}
	sort.Strings(fls)

	var groups []Group
	for _, fl := range fls {
		byCell := byFL[fl]
		cells := make([]int, 0, len(byCell))
		for cellNo := range byCell {
			cells = append(cells, cellNo)
		}
		sort.Ints(cells)
		for _, cellNo := range cells {
			groups = append(groups, Group{FL: fl, Cell: cellNo, Reads: byCell[cellNo]})
		}
	}
	return groups
}
