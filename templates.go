// Copyright 2021 The rtcohort authors.
// All rights reserved.

package main

const (
	rtTmpl = `
set title '{{.Title}}'

{{.SetTerm}}
{{.SetOutput}}

set timefmt '%Y-%m-%d'
set xdata time
set format x "%b '%y"
set xlabel 'Date'
set ylabel 'Effective reproduction number'
set yrange [0:*]
set grid xtics ytics
set key top right
set datafile missing '?'

plot '{{.DataPath}}' using 1:4:5 with filledcurves lc 'skyblue' fs transparent solid 0.25 title 'Cohort 10th-90th percentile', \
     '{{.DataPath}}' using 1:3 with lines lc 'blue' lw 2 title 'Cohort median', \
     '{{.DataPath}}' using 1:2 with lines lc 'red' lw 3 title '{{.Focal}}', \
     1 with lines lc 'gray' dt 2 notitle
`

	casesTmpl = `
set title '{{.Title}}'

{{.SetTerm}}
{{.SetOutput}}

set timefmt '%Y-%m-%d'
set xdata time
set format x "%b '%y"
set xlabel 'Date'
set ylabel 'New cases per 100k (7-day average)'
set yrange [0:*]
set grid xtics ytics
set datafile missing '?'

set key autotitle columnheader outside top right

# https://stackoverflow.com/a/57239036
set linetype 1 lc rgb "dark-violet" lw 1 pt 0
set linetype 2 lc rgb "#009e73"     lw 1 pt 7
set linetype 3 lc rgb "#56b4e9"     lw 1 pt 6
set linetype 4 lc rgb "#e69f00"     lw 1 pt 5
set linetype 5 lc rgb "#f0e442"     lw 1 pt 8
set linetype 6 lc rgb "#0072b2"     lw 1 pt 3
set linetype 7 lc rgb "#e51e10"     lw 1 pt 11
set linetype 8 lc rgb "black"       lw 1
set linetype cycle 8

num_lines = {{.NumLines}}
plot for [i=2:num_lines+1] '{{.DataPath}}' using 1:i with lines
`
)
