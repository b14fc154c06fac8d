package delay

// Fixed delay distributions, in days since infection.  The case and
// death kernels come from incubation-period and onset-to-outcome
// estimates; the short/long pair distinguishes regions with fast
// symptomatic-testing regimes from the rest.  The generation-interval
// distribution drives the explicit renewal recursion.

var caseKernel = mustKernel([]float64{
	0., 0.0252817, 0.03717965, 0.05181224, 0.06274125,
	0.06961334, 0.07277174, 0.07292397, 0.07077184, 0.06694868,
	0.06209945, 0.05659917, 0.0508999, 0.0452042, 0.03976573,
	0.03470891, 0.0299895, 0.02577721, 0.02199923, 0.01871723,
	0.01577148, 0.01326564, 0.01110783, 0.00928827, 0.0077231,
	0.00641162, 0.00530572, 0.00437895, 0.00358801, 0.00295791,
	0.0024217, 0.00197484,
})

var deathKernel = mustKernel([]float64{
	0.00000000e+00, 2.24600347e-06, 3.90382088e-05, 2.34307085e-04, 7.83555003e-04,
	1.91221622e-03, 3.78718437e-03, 6.45923913e-03, 9.94265709e-03, 1.40610714e-02,
	1.86527920e-02, 2.34311421e-02, 2.81965055e-02, 3.27668001e-02, 3.68031574e-02,
	4.03026198e-02, 4.30521951e-02, 4.50637136e-02, 4.63315047e-02, 4.68794406e-02,
	4.67334059e-02, 4.59561441e-02, 4.47164503e-02, 4.29327455e-02, 4.08614522e-02,
	3.85082076e-02, 3.60294203e-02, 3.34601703e-02, 3.08064505e-02, 2.81766028e-02,
	2.56165924e-02, 2.31354369e-02, 2.07837267e-02, 1.86074383e-02, 1.65505661e-02,
	1.46527043e-02, 1.29409383e-02, 1.13695920e-02, 9.93233881e-03, 8.66063386e-03,
	7.53805464e-03, 6.51560047e-03, 5.63512264e-03, 4.84296166e-03, 4.14793478e-03,
	3.56267297e-03, 3.03480656e-03, 2.59406730e-03, 2.19519042e-03, 1.85454286e-03,
	1.58333238e-03, 1.33002321e-03, 1.11716435e-03, 9.35360376e-04, 7.87780158e-04,
	6.58601602e-04, 5.48147154e-04, 4.58151351e-04, 3.85878963e-04, 3.21623249e-04,
	2.66129174e-04, 2.21364768e-04, 1.80736566e-04, 1.52350196e-04,
})

var deathKernelAlt = mustKernel([]float64{
	0.00000000e+00, 1.64635735e-06, 3.15032703e-05, 1.86360977e-04, 6.26527963e-04,
	1.54172466e-03, 3.10103643e-03, 5.35663499e-03, 8.33979000e-03, 1.19404848e-02,
	1.59939055e-02, 2.03185081e-02, 2.47732062e-02, 2.90464491e-02, 3.30612027e-02,
	3.66089026e-02, 3.95642697e-02, 4.18957120e-02, 4.35715814e-02, 4.45816884e-02,
	4.49543992e-02, 4.47474142e-02, 4.40036056e-02, 4.27545988e-02, 4.11952870e-02,
	3.92608505e-02, 3.71824356e-02, 3.48457206e-02, 3.24845883e-02, 3.00814850e-02,
	2.76519177e-02, 2.52792720e-02, 2.30103580e-02, 2.07636698e-02, 1.87005838e-02,
	1.67560244e-02, 1.49600154e-02, 1.32737561e-02, 1.17831130e-02, 1.03716286e-02,
	9.13757250e-03, 7.98287530e-03, 6.96265658e-03, 6.05951833e-03, 5.26450572e-03,
	4.56833017e-03, 3.93189069e-03, 3.38098392e-03, 2.91542076e-03, 2.49468747e-03,
	2.13152106e-03, 1.82750115e-03, 1.55693122e-03, 1.31909933e-03, 1.11729819e-03,
	9.46588730e-04, 8.06525991e-04, 6.81336089e-04, 5.74623210e-04, 4.80157895e-04,
	4.02211774e-04, 3.35345193e-04, 2.82450401e-04, 2.38109993e-04,
})

var caseKernelShort = mustKernel([]float64{
	0., 0.04086903, 0.05623389, 0.07404812, 0.08464692,
	0.08861931, 0.08750149, 0.08273123, 0.07575679, 0.06766597,
	0.05910415, 0.05093048, 0.04321916, 0.03622008, 0.03000523,
	0.02472037, 0.02016809, 0.01637281, 0.01318903, 0.01057912,
	0.00844349, 0.0067064, 0.00529629, 0.00416558, 0.00327265,
	0.00255511, 0.00200011, 0.00155583, 0.00120648, 0.00093964,
	0.00072111, 0.00055606,
})

var caseKernelLong = mustKernel([]float64{
	0., 0.01690821, 0.02602795, 0.03772294, 0.0474657,
	0.05484009, 0.05969648, 0.06231737, 0.06292536, 0.0619761,
	0.05983904, 0.05677383, 0.05311211, 0.04914501, 0.04502909,
	0.04085248, 0.03682251, 0.03290895, 0.02924259, 0.02585378,
	0.02274018, 0.01993739, 0.01739687, 0.01511531, 0.01309569,
	0.01130081, 0.00972391, 0.00832998, 0.00716289, 0.00610338,
	0.00520349, 0.00443053,
})

var generationInterval = mustKernel([]float64{
	5.86777778e-04, 1.15317556e-02, 5.22088556e-02, 1.14080678e-01, 1.62762756e-01,
	1.76006922e-01, 1.56763867e-01, 1.21060233e-01, 8.38630333e-02, 5.32850556e-02,
	3.15776111e-02, 1.76515889e-02, 9.38466667e-03, 4.79226667e-03, 2.36040000e-03,
	1.13427778e-03, 5.26733333e-04, 2.38822222e-04, 1.03755556e-04, 4.56222222e-05,
	2.01333333e-05, 7.67777778e-06, 3.84444444e-06, 1.70000000e-06, 5.66666667e-07,
	2.22222222e-07, 1.11111111e-07, 2.22222222e-08, 1.11111111e-08, 3.33333333e-08,
})

// CaseKernel is the infection-to-confirmation delay distribution.
func CaseKernel() *Kernel { return caseKernel }

// DeathKernel is the infection-to-death delay distribution.
func DeathKernel() *Kernel { return deathKernel }

// DeathKernelAlt is the alternative infection-to-death delay used by
// the log-normal-hierarchy variant.
func DeathKernelAlt() *Kernel { return deathKernelAlt }

// CaseKernelShort is the confirmation delay for regions with fast
// symptomatic testing.
func CaseKernelShort() *Kernel { return caseKernelShort }

// CaseKernelLong is the confirmation delay for regions without fast
// symptomatic testing.
func CaseKernelLong() *Kernel { return caseKernelLong }

// GenerationInterval is the discretized serial-interval distribution
// used by the explicit renewal recursion.
func GenerationInterval() *Kernel { return generationInterval }
